package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	CommandPrefix string `json:"command_prefix"`
	Buffer        struct {
		Capacity            int `json:"capacity"`
		BackfillPerChannel  int `json:"backfill_per_channel"`
		BackfillTimeoutSecs int `json:"backfill_timeout_secs"`
	} `json:"buffer"`
	Channels struct {
		Context []int64 `json:"context"`
		Command []int64 `json:"command"`
	} `json:"channels"`
	Persistence struct {
		Enabled  bool   `json:"enabled"`
		Path     string `json:"path"`
		Autosave string `json:"autosave"`
	} `json:"persistence"`
	LLM struct {
		Provider         string  `json:"provider"`
		BaseURL          string  `json:"base_url"`
		APIKey           string  `json:"api_key"`
		Model            string  `json:"model"`
		MaxTokens        int     `json:"max_tokens"`
		Temperature      float32 `json:"temperature"`
		MaxContextTokens int     `json:"max_context_tokens"`
		OutputReserve    int     `json:"output_reserve"`
	} `json:"llm"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".taskwing"),
		LogLevel:      "info",
		CommandPrefix: "!tw",
	}
	cfg.Buffer.Capacity = 500
	cfg.Buffer.BackfillPerChannel = 100
	cfg.Buffer.BackfillTimeoutSecs = 30
	cfg.Persistence.Enabled = true
	cfg.Persistence.Autosave = "@every 5m"
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Model = "gemini-2.5-flash"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && cfg.LLM.Provider == "gemini" {
		cfg.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if ids := os.Getenv("CONTEXT_CHANNELS"); ids != "" {
		parsed, err := parseChannelList(ids)
		if err != nil {
			return nil, fmt.Errorf("CONTEXT_CHANNELS: %w", err)
		}
		cfg.Channels.Context = parsed
	}
	if ids := os.Getenv("COMMAND_CHANNELS"); ids != "" {
		parsed, err := parseChannelList(ids)
		if err != nil {
			return nil, fmt.Errorf("COMMAND_CHANNELS: %w", err)
		}
		cfg.Channels.Command = parsed
	}

	return cfg, nil
}

// SnapshotPath returns the configured snapshot location, defaulting to
// records.json under the data dir.
func (c *Config) SnapshotPath() string {
	if c.Persistence.Path != "" {
		return c.Persistence.Path
	}
	return filepath.Join(c.DataDir, "records.json")
}

// ParseChannelIDs parses a comma-separated channel ID list.
func ParseChannelIDs(s string) ([]int64, error) {
	return parseChannelList(s)
}

func parseChannelList(s string) ([]int64, error) {
	var out []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
