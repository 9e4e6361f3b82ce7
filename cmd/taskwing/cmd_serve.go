package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/taskwing/internal/buffer"
	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/commands"
	"github.com/user/taskwing/internal/gateway"
	"github.com/user/taskwing/internal/journal"
	"github.com/user/taskwing/internal/persist"
	"github.com/user/taskwing/internal/prompt"
	"github.com/user/taskwing/internal/scheduler"
	"github.com/user/taskwing/internal/store"
	"github.com/user/taskwing/internal/telegram"
	"github.com/user/taskwing/internal/types"
	"github.com/user/taskwing/pkg/llm"
	"github.com/user/taskwing/pkg/llm/gemini"
	"github.com/user/taskwing/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskwing daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "taskwing.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func channelIDs(raw []int64) []types.ChannelID {
	out := make([]types.ChannelID, len(raw))
	for i, id := range raw {
		out[i] = types.ChannelID(id)
	}
	return out
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set GEMINI_API_KEY or run `taskwing config set llm.api_key ...`)")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Write PID file
	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel classification and the message side
	classifier := channels.New(channelIDs(cfg.Channels.Context), channelIDs(cfg.Channels.Command))
	buf := buffer.New(cfg.Buffer.Capacity, classifier)
	jrnl := journal.New(cfg.DataDir)

	// Record store, restored from the snapshot when persistence is on.
	// A malformed snapshot is logged and the store starts empty; the
	// file is only overwritten by the next successful save.
	st := store.New()
	var saveFn func() error
	if cfg.Persistence.Enabled {
		pg := persist.New(cfg.SnapshotPath())
		snap, err := pg.Load()
		if err != nil {
			slog.Error("snapshot load failed, starting empty", "path", pg.Path(), "error", err)
		} else {
			st.Restore(snap)
		}
		saveFn = func() error {
			return pg.Save(st.Snapshot())
		}
	} else {
		slog.Warn("persistence disabled")
	}

	// Completion provider
	llmCfg := &llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	var provider llm.Provider
	switch cfg.LLM.Provider {
	case "openai":
		provider = openai.New(llmCfg)
	default:
		provider, err = gemini.New(ctx, llmCfg)
		if err != nil {
			return fmt.Errorf("create gemini provider: %w", err)
		}
	}

	// Prompt engine
	engine, err := prompt.New(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create prompt engine: %w", err)
	}

	handler := &commands.Handler{
		Store:      st,
		Buffer:     buf,
		Classifier: classifier,
		Engine:     engine,
		Provider:   provider,
		Clipper:    commands.NewClipper(),
		Save:       saveFn,
	}

	gw := gateway.New(buf, jrnl, classifier, handler, cfg.CommandPrefix, 0)
	gw.Start(ctx)
	defer gw.Stop()

	// Seed the buffer from the journal before live events start. The
	// idempotent ingest makes any overlap with early deliveries safe.
	buf.Backfill(ctx, jrnl,
		cfg.Buffer.BackfillPerChannel,
		time.Duration(cfg.Buffer.BackfillTimeoutSecs)*time.Second)

	// Autosave
	sched := scheduler.New()
	if saveFn != nil {
		if err := sched.AddSave(cfg.Persistence.Autosave, saveFn); err != nil {
			return fmt.Errorf("schedule autosave: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	slog.Info("taskwing started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"buffer_capacity", cfg.Buffer.Capacity,
		"context_channels", len(cfg.Channels.Context),
		"command_channels", len(cfg.Channels.Command),
		"persistence", cfg.Persistence.Enabled,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"pid_file", pidPath,
	)

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, gw)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	flush := func() {
		if saveFn == nil {
			return
		}
		if err := saveFn(); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			flush()
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM: flush then exit
		slog.Info("shutting down", "signal", sig)
		flush()
		return nil
	}
}
