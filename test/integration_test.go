//go:build integration

package test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/user/taskwing/internal/buffer"
	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/commands"
	"github.com/user/taskwing/internal/gateway"
	"github.com/user/taskwing/internal/journal"
	"github.com/user/taskwing/internal/persist"
	"github.com/user/taskwing/internal/prompt"
	"github.com/user/taskwing/internal/store"
	"github.com/user/taskwing/internal/types"
	"github.com/user/taskwing/pkg/llm"
)

type echoProvider struct{}

func (echoProvider) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	return &llm.Response{Content: "echo: " + messages[len(messages)-1].Content}, nil
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()

	classifier := channels.New([]types.ChannelID{100}, []types.ChannelID{200})
	buf := buffer.New(50, classifier)
	jrnl := journal.New(dir)
	st := store.New()
	pg := persist.New(dir + "/records.json")

	engine, err := prompt.New("gpt-4", 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}

	handler := &commands.Handler{
		Store:      st,
		Buffer:     buf,
		Classifier: classifier,
		Engine:     engine,
		Provider:   echoProvider{},
		Save:       func() error { return pg.Save(st.Snapshot()) },
	}

	gw := gateway.New(buf, jrnl, classifier, handler, "!tw", 0)
	ctx := context.Background()
	gw.Start(ctx)
	defer gw.Stop()

	// Chatter into the context channel.
	for i := 0; i < 3; i++ {
		in := &gateway.Inbound{Message: &types.Message{
			ID:        types.MessageID(fmt.Sprintf("m%d", i)),
			ChannelID: 100,
			Author:    "alice",
			Content:   fmt.Sprintf("chatter %d", i),
			At:        time.Now(),
		}}
		if err := gw.Enqueue(in); err != nil {
			t.Fatal(err)
		}
	}

	// A command from the command channel creates a task and saves.
	replied := make(chan string, 2)
	gw.Enqueue(&gateway.Inbound{
		Message: &types.Message{ID: "c1", ChannelID: 200, Author: "bob", Content: "!tw task add Finish the report | by friday", At: time.Now()},
		Reply:   func(s string) { replied <- s },
	})
	gw.Enqueue(&gateway.Inbound{
		Message: &types.Message{ID: "c2", ChannelID: 200, Author: "bob", Content: "!tw save", At: time.Now()},
		Reply:   func(s string) { replied <- s },
	})

	for i := 0; i < 2; i++ {
		select {
		case <-replied:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for command replies")
		}
	}

	if buf.Len() != 3 {
		t.Errorf("expected 3 buffered messages, got %d", buf.Len())
	}

	// Restart: a fresh store restores from the snapshot, a fresh buffer
	// backfills from the journal.
	snap, err := pg.Load()
	if err != nil {
		t.Fatal(err)
	}
	st2 := store.New()
	st2.Restore(snap)
	tasks := st2.ListTasks("")
	if len(tasks) != 1 || tasks[0].Title != "Finish the report" {
		t.Fatalf("expected task to survive restart, got %+v", tasks)
	}

	buf2 := buffer.New(50, classifier)
	stored := buf2.Backfill(ctx, jrnl, 50, time.Second)
	if stored != 3 {
		t.Errorf("expected 3 backfilled messages, got %d", stored)
	}
	got := buf2.Recent(10)
	if len(got) != 3 || got[0].ID != "m0" {
		t.Errorf("expected chronological backfill starting at m0, got %v", got)
	}

	// IDs keep advancing after restart.
	next, err := st2.AddTask("Another", "", types.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 2 {
		t.Errorf("expected ID 2 after restart, got %d", next.ID)
	}

	// Ask flows through the provider with buffered context.
	h2 := &commands.Handler{Store: st2, Buffer: buf2, Classifier: classifier, Engine: engine, Provider: echoProvider{}}
	cmd, ok := commands.Parse("!tw", "!tw ask what happened?")
	if !ok {
		t.Fatal("expected command to parse")
	}
	reply := h2.Handle(ctx, cmd)
	if !strings.Contains(reply, "what happened?") {
		t.Errorf("unexpected ask reply %q", reply)
	}
}
