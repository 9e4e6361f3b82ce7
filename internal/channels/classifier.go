// Package channels classifies gateway channels by role.
package channels

import (
	"sync"

	"github.com/user/taskwing/internal/types"
)

// Role describes how messages from a channel are handled.
type Role int

const (
	// RoleUnmonitored channels are ignored entirely.
	RoleUnmonitored Role = iota
	// RoleCommand channels have commands processed but content is not retained.
	RoleCommand
	// RoleContext channels feed the context buffer (and commands are processed).
	RoleContext
)

func (r Role) String() string {
	switch r {
	case RoleContext:
		return "context"
	case RoleCommand:
		return "command"
	default:
		return "unmonitored"
	}
}

// Classifier maps channel IDs to roles. It is built once from configuration;
// the only runtime mutation is Monitor, which is additive.
type Classifier struct {
	mu    sync.RWMutex
	roles map[types.ChannelID]Role
}

// New builds a Classifier from the configured channel sets. A channel listed
// in both sets classifies as context: its content is retained and its
// commands are still processed.
func New(contextIDs, commandIDs []types.ChannelID) *Classifier {
	roles := make(map[types.ChannelID]Role, len(contextIDs)+len(commandIDs))
	for _, id := range commandIDs {
		roles[id] = RoleCommand
	}
	for _, id := range contextIDs {
		roles[id] = RoleContext
	}
	return &Classifier{roles: roles}
}

// Classify returns the role of the given channel.
func (c *Classifier) Classify(id types.ChannelID) Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles[id]
}

// Monitor adds a channel as a context channel. The change is visible to
// subsequent Classify calls immediately. Channels are never demoted.
func (c *Classifier) Monitor(id types.ChannelID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[id] = RoleContext
}

// ContextChannels returns the current set of context channels.
func (c *Classifier) ContextChannels() []types.ChannelID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]types.ChannelID, 0, len(c.roles))
	for id, role := range c.roles {
		if role == RoleContext {
			ids = append(ids, id)
		}
	}
	return ids
}
