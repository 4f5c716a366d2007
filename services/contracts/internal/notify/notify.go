// Package notify implements the notification sink the lifecycle engine
// depends on. Delivery is best-effort: the dispatcher detaches from the
// caller so a slow or failing sink never blocks a lifecycle operation.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Sink interface {
	Notify(ctx context.Context, userID string, n domain.Notification) error
}

// Store writes notifications to the notifications table for the user's inbox.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) Notify(ctx context.Context, userID string, n domain.Notification) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO notifications(notification_id,user_id,type,title,message,link)
VALUES($1,$2,$3,$4,$5,$6)
`, "ntf_"+uuid.NewString(), userID, n.Type, n.Title, n.Message, n.Link)
	return err
}

// LogSink only logs; used when the server runs without a database.
type LogSink struct{ Logger *slog.Logger }

func (l LogSink) Notify(_ context.Context, userID string, n domain.Notification) error {
	l.Logger.Info("notification", "user_id", userID, "type", n.Type, "title", n.Title)
	return nil
}

const deliverTimeout = 5 * time.Second

// Dispatcher makes any sink fire-and-forget: Notify returns immediately and
// the delivery runs on its own goroutine with a detached context. Close waits
// for in-flight deliveries, so shutdown does not drop them.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, logger: logger}
}

func (d *Dispatcher) Notify(_ context.Context, userID string, n domain.Notification) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		if err := d.sink.Notify(ctx, userID, n); err != nil {
			d.logger.Warn("notification delivery failed", "user_id", userID, "type", n.Type, "error", err)
		}
	}()
	return nil
}

func (d *Dispatcher) Close() { d.wg.Wait() }
