package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactChangeChannel is the NOTIFY channel raised by the contact_messages trigger.
const ContactChangeChannel = "contact_messages_changed"

// ChangeFeed listens for NOTIFY events on one channel using a dedicated
// pooled connection.
type ChangeFeed struct {
	pool    *pgxpool.Pool
	channel string
	retry   time.Duration
}

// NewChangeFeed creates a ChangeFeed. retry is the wait before re-acquiring
// a connection after it was lost.
func NewChangeFeed(pool *pgxpool.Pool, channel string, retry time.Duration) *ChangeFeed {
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &ChangeFeed{pool: pool, channel: channel, retry: retry}
}

// Subscribe starts listening and calls onChange once per notification.
// The first LISTEN must succeed; later connection losses are logged and
// retried until the returned Unsubscribe is called or ctx is done.
func (f *ChangeFeed) Subscribe(ctx context.Context, onChange func()) (Unsubscribe, error) {
	conn, err := f.listen(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.run(ctx, conn, onChange)
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (f *ChangeFeed) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}
	return conn, nil
}

func (f *ChangeFeed) run(ctx context.Context, conn *pgxpool.Conn, onChange func()) {
	for {
		_, err := conn.Conn().WaitForNotification(ctx)
		if err == nil {
			onChange()
			continue
		}
		// LISTEN 中の接続を pool に戻すと通知が溜まり続けるので、必ず閉じる
		discard(conn)
		if ctx.Err() != nil {
			return
		}
		slog.Error("change feed connection lost", "channel", f.channel, "error", err)

		conn = f.reconnect(ctx)
		if conn == nil {
			return
		}
		// Events may have been missed while disconnected.
		onChange()
	}
}

// discard removes conn from the pool and closes it.
func discard(conn *pgxpool.Conn) {
	c := conn.Hijack()
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = c.Close(closeCtx)
}

func (f *ChangeFeed) reconnect(ctx context.Context) *pgxpool.Conn {
	t := time.NewTimer(f.retry)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		conn, err := f.listen(ctx)
		if err == nil {
			slog.Info("change feed reconnected", "channel", f.channel)
			return conn
		}
		slog.Warn("change feed reconnect failed", "channel", f.channel, "error", err)
		t.Reset(f.retry)
	}
}
