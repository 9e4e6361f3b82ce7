// Package journal is a JSONL-backed append-only message log, one file per
// channel. It doubles as the backfill history source after a restart.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/taskwing/internal/types"
)

// Compile-time interface compliance check.
var _ types.Journal = (*Log)(nil)

// Log stores messages per-channel in channels/<channelID>/messages.jsonl.
type Log struct {
	root  string
	mu    sync.Mutex
	locks map[types.ChannelID]*sync.Mutex
}

// New creates a Log rooted at the given directory.
func New(root string) *Log {
	return &Log{
		root:  root,
		locks: make(map[types.ChannelID]*sync.Mutex),
	}
}

// getLock returns the per-channel mutex, creating one if it doesn't exist.
func (l *Log) getLock(channel types.ChannelID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lock, ok := l.locks[channel]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	l.locks[channel] = lock
	return lock
}

func (l *Log) messagesPath(channel types.ChannelID) string {
	return filepath.Join(l.root, "channels", channel.String(), "messages.jsonl")
}

// Record appends a message to its channel's log.
func (l *Log) Record(_ context.Context, msg *types.Message) error {
	lock := l.getLock(msg.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(l.messagesPath(msg.ChannelID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create channel dir: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	f, err := os.OpenFile(l.messagesPath(msg.ChannelID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// FetchHistory returns up to limit of the channel's most recent messages,
// newest first, matching the history-source contract. A missing log file
// yields no messages and no error.
func (l *Log) FetchHistory(_ context.Context, channel types.ChannelID, limit int) ([]*types.Message, error) {
	lock := l.getLock(channel)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(l.messagesPath(channel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	var messages []*types.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg types.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan messages file: %w", err)
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	// File order is oldest-first; reverse for the newest-first contract.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
