package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"
)

type recordingSink struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
	err   error
}

func (r *recordingSink) Notify(_ context.Context, userID string, n domain.Notification) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seen = append(r.seen, userID+":"+n.Type)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatcherDeliversAsynchronously(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, discard())
	if err := d.Notify(context.Background(), "usr_1", domain.Notification{Type: "contract_created"}); err != nil {
		t.Fatalf("dispatcher must not fail: %v", err)
	}
	d.Close()
	if len(sink.seen) != 1 || sink.seen[0] != "usr_1:contract_created" {
		t.Fatalf("unexpected deliveries: %v", sink.seen)
	}
}

func TestDispatcherNeverBlocksCaller(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, discard())
	done := make(chan struct{})
	go func() {
		_ = d.Notify(context.Background(), "usr_1", domain.Notification{Type: "contract_signed"})
		close(done)
	}()
	<-done // returns immediately even though the sink is stuck
	close(sink.block)
	d.Close()
}

func TestDispatcherSwallowsSinkErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	d := NewDispatcher(sink, discard())
	if err := d.Notify(context.Background(), "usr_1", domain.Notification{Type: "contract_created"}); err != nil {
		t.Fatalf("sink errors must not surface: %v", err)
	}
	d.Close()
}
