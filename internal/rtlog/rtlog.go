// Package rtlog lets a real-time goroutine log without touching I/O.
//
// Records are cloned into a bounded single-producer queue and written by a
// separate drain goroutine. When the queue is full the record is dropped and
// counted instead of blocking the producer.
package rtlog

import (
	"context"
	"log/slog"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// DefaultCapacity is the queue size used when New is given zero
const DefaultCapacity = 256

type entry struct {
	handler slog.Handler
	record  slog.Record
}

type queue struct {
	q       lfq.SPSC[entry]
	dropped atomix.Uint32
}

// Handler is a slog.Handler whose Handle never blocks.
// Only one goroutine may log through a Handler and its derivatives at a time.
type Handler struct {
	next slog.Handler
	q    *queue
}

// New returns a handler queueing records for next.
func New(next slog.Handler, capacity int) *Handler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &queue{}
	q.q.Init(capacity)
	return &Handler{next: next, q: q}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	e := entry{handler: h.next, record: r.Clone()}
	if err := h.q.q.Enqueue(&e); err != nil {
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs), q: h.q}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name), q: h.q}
}

// Dropped returns the number of records lost to a full queue
func (h *Handler) Dropped() uint32 {
	return h.q.dropped.Load()
}

// Drain writes queued records until ctx is done, then flushes what is left.
func (h *Handler) Drain(ctx context.Context) error {
	var bo iox.Backoff
	for {
		e, err := h.q.q.Dequeue()
		if err == nil {
			bo.Reset()
			e.handler.Handle(context.Background(), e.record)
			continue
		}
		if !iox.IsWouldBlock(err) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		bo.Wait()
	}
}
