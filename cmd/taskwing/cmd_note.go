package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/taskwing/internal/types"
)

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteSearchCmd, noteDeleteCmd)

	noteAddCmd.Flags().String("title", "", "note title (required)")
	noteAddCmd.Flags().String("content", "", "note content")
	noteAddCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	_ = noteAddCmd.MarkFlagRequired("title")
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		st, pg, err := openStore()
		if err != nil {
			return err
		}
		note, err := st.AddNote(title, content, tags)
		if err != nil {
			return fmt.Errorf("add note: %w", err)
		}
		if err := pg.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Note #%d added: %s\n", note.ID, note.Title)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		return printNotes(st.ListNotes())
	},
}

var noteSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by title, content, or tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		return printNotes(st.SearchNotes(args[0]))
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid note id: %s", args[0])
		}
		st, pg, err := openStore()
		if err != nil {
			return err
		}
		if err := st.DeleteNote(id); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if err := pg.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Note #%d deleted.\n", id)
		return nil
	},
}

func printNotes(notes []*types.Note) error {
	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTAGS\tCREATED")
	for _, n := range notes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			n.ID,
			n.Title,
			strings.Join(n.Tags, ","),
			n.CreatedAt.Format(time.DateOnly),
		)
	}
	return w.Flush()
}
