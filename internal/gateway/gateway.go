// Package gateway drives all mutation through a single consumer loop.
// Inbound events are queued in delivery order and applied one at a time,
// so the buffer and the store see exactly one writer.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/taskwing/internal/buffer"
	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/commands"
	"github.com/user/taskwing/internal/types"
)

const defaultQueueSize = 256

// Inbound is one gateway-delivered event: a message plus an optional
// reply callback for command responses.
type Inbound struct {
	RunID   types.RunID
	Message *types.Message
	Reply   func(string)
}

// Gateway owns the inbound queue and its consumer goroutine.
type Gateway struct {
	queue      chan *Inbound
	buffer     *buffer.Buffer
	journal    types.Journal
	classifier *channels.Classifier
	handler    *commands.Handler
	prefix     string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Gateway with the given queue size (0 for the default).
func New(
	buf *buffer.Buffer,
	jrnl types.Journal,
	classifier *channels.Classifier,
	handler *commands.Handler,
	prefix string,
	queueSize int,
) *Gateway {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Gateway{
		queue:      make(chan *Inbound, queueSize),
		buffer:     buf,
		journal:    jrnl,
		classifier: classifier,
		handler:    handler,
		prefix:     prefix,
	}
}

// Start launches the consumer loop. Must be called before Enqueue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.wg.Add(1)
	go g.consume()
}

// Stop cancels the consumer and waits for it to drain any events that
// were already queued.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.wg.Wait()
}

// Enqueue adds an inbound event to the queue. Returns an error when the
// queue is full; the caller decides whether to drop or report.
func (g *Gateway) Enqueue(in *Inbound) error {
	if in.RunID == "" {
		in.RunID = types.NewRunID()
	}
	select {
	case g.queue <- in:
		return nil
	default:
		return fmt.Errorf("inbound queue full (run %s)", in.RunID)
	}
}

// consume applies ingestion and command handling in delivery order. On
// cancellation, events already accepted into the queue are still
// processed before the consumer exits.
func (g *Gateway) consume() {
	defer g.wg.Done()
	for {
		select {
		case in := <-g.queue:
			g.process(in)
		case <-g.ctx.Done():
			g.drain()
			return
		}
	}
}

func (g *Gateway) drain() {
	for {
		select {
		case in := <-g.queue:
			g.process(in)
		default:
			return
		}
	}
}

func (g *Gateway) process(in *Inbound) {
	msg := in.Message
	role := g.classifier.Classify(msg.ChannelID)
	if role == channels.RoleUnmonitored {
		return
	}

	// Context channels retain content. Journal only what the buffer
	// accepted, so duplicate deliveries are not journaled twice.
	if role == channels.RoleContext && g.buffer.Ingest(msg) {
		if err := g.journal.Record(g.ctx, msg); err != nil {
			slog.Warn("journal write failed", "run_id", in.RunID, "channel_id", msg.ChannelID, "error", err)
		}
	}

	cmd, ok := commands.Parse(g.prefix, msg.Content)
	if !ok {
		return
	}

	slog.Info("command received",
		"run_id", in.RunID,
		"command", cmd.Name,
		"sub", cmd.Sub,
		"channel_id", msg.ChannelID,
		"author", msg.Author,
	)

	reply := g.handler.Handle(g.ctx, cmd)
	if reply != "" && in.Reply != nil {
		in.Reply(reply)
	}
}
