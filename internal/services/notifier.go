package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PgNotifier delivers rating insert events through Postgres
// LISTEN/NOTIFY. Every connected process instance sees every insert,
// whichever instance wrote it.
type PgNotifier struct {
	pool    *pgxpool.Pool
	channel string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPgNotifier creates a notifier on the given connection pool. The
// channel must match the one the rating repository publishes on.
func NewPgNotifier(pool *pgxpool.Pool, channel string) *PgNotifier {
	return &PgNotifier{pool: pool, channel: channel}
}

// Subscribe dedicates a connection to LISTEN and returns a channel of
// decoded events. The channel is closed when Unsubscribe is called or
// the connection dies.
func (n *PgNotifier) Subscribe(ctx context.Context) (<-chan RatingEvent, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		return nil, fmt.Errorf("already subscribed")
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	conn, err := n.pool.Acquire(listenCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(listenCtx, "LISTEN "+n.channel); err != nil {
		conn.Release()
		cancel()
		return nil, fmt.Errorf("failed to listen on %s: %w", n.channel, err)
	}

	events := make(chan RatingEvent, 16)
	n.cancel = cancel

	go n.listen(listenCtx, conn, events)

	return events, nil
}

// listen drains server notifications into the event channel until the
// subscription context is cancelled. Undecodable payloads are logged
// and skipped; the stream continues.
func (n *PgNotifier) listen(ctx context.Context, conn *pgxpool.Conn, events chan<- RatingEvent) {
	defer close(events)
	defer conn.Release()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("Listen connection lost")
			}
			return
		}

		var ev RatingEvent
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			log.Error().Err(err).Msg("Failed to decode rating event payload")
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Unsubscribe terminates the subscription and closes the event
// channel. Safe to call multiple times.
func (n *PgNotifier) Unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}
