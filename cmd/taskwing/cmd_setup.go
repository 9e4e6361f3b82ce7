package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/user/taskwing/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("Taskwing Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.Telegram.Token = promptValue(scanner, "Telegram bot token", cfg.Telegram.Token)
		cfg.LLM.Provider = promptValue(scanner, "LLM provider (gemini or openai)", cfg.LLM.Provider)
		cfg.LLM.APIKey = promptValue(scanner, "LLM API key", cfg.LLM.APIKey)
		cfg.LLM.Model = promptValue(scanner, "LLM model name", cfg.LLM.Model)

		capStr := promptValue(scanner, "Message buffer capacity", strconv.Itoa(cfg.Buffer.Capacity))
		if n, err := strconv.Atoi(capStr); err == nil && n > 0 {
			cfg.Buffer.Capacity = n
		}

		contextIDs := promptValue(scanner, "Context channel IDs (comma-separated)", joinIDs(cfg.Channels.Context))
		if parsed, err := config.ParseChannelIDs(contextIDs); err == nil {
			cfg.Channels.Context = parsed
		}
		commandIDs := promptValue(scanner, "Command channel IDs (comma-separated)", joinIDs(cfg.Channels.Command))
		if parsed, err := config.ParseChannelIDs(commandIDs); err == nil {
			cfg.Channels.Command = parsed
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

func promptValue(scanner *bufio.Scanner, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	if !scanner.Scan() {
		return def
	}
	if text := scanner.Text(); text != "" {
		return text
	}
	return def
}

func joinIDs(ids []int64) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += strconv.FormatInt(id, 10)
	}
	return out
}
