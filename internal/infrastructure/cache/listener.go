// Package cache keeps in-process reference data fresh with PostgreSQL
// LISTEN/NOTIFY.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockbook/pkg/logger"
)

// Channel names raised by database triggers.
const (
	ChannelStatusesChanged = "statuses_changed"
)

// Handler reacts to one notification.
type Handler func(ctx context.Context, payload string)

// Listener holds a dedicated connection in LISTEN mode and dispatches
// notifications to the handlers subscribed to each channel.
type Listener struct {
	pool *pgxpool.Pool

	mu       sync.RWMutex
	handlers map[string][]Handler

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewListener creates a listener over pool. Call Subscribe before Start.
func NewListener(pool *pgxpool.Pool) *Listener {
	return &Listener{pool: pool, handlers: make(map[string][]Handler)}
}

// Subscribe registers h for channel.
func (l *Listener) Subscribe(channel string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[channel] = append(l.handlers[channel], h)
}

// Channels lists subscribed channels in name order.
func (l *Listener) Channels() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.handlers))
	for ch := range l.handlers {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Start begins listening in the background.
func (l *Listener) Start(ctx context.Context) error {
	if len(l.Channels()) == 0 {
		return errors.New("listener has no subscriptions")
	}

	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return nil
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	return nil
}

// Stop cancels listening and waits for the loop to exit.
func (l *Listener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
}

func (l *Listener) listenLoop() {
	defer l.wg.Done()

	for l.ctx.Err() == nil {
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if err := l.listen(conn.Conn()); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		l.waitForNotifications(conn.Conn())
		conn.Release()
	}
}

func (l *Listener) listen(conn *pgx.Conn) error {
	channels := l.Channels()
	stmts := make([]string, 0, len(channels))
	for _, ch := range channels {
		stmts = append(stmts, "LISTEN "+pgx.Identifier{ch}.Sanitize())
	}
	if _, err := conn.Exec(l.ctx, strings.Join(stmts, "; ")); err != nil {
		return fmt.Errorf("listen %v: %w", channels, err)
	}
	logger.Info(l.ctx, "listening for notifications", "channels", channels)
	return nil
}

// waitForNotifications returns when the connection breaks or the listener stops.
func (l *Listener) waitForNotifications(conn *pgx.Conn) {
	for {
		n, err := conn.WaitForNotification(l.ctx)
		if err != nil {
			if l.ctx.Err() == nil {
				logger.Warn(l.ctx, "notification wait failed, reconnecting", "error", err)
			}
			return
		}
		l.dispatch(l.ctx, n.Channel, n.Payload)
	}
}

// dispatch runs the channel's handlers in order. A panicking handler does
// not stop the others.
func (l *Listener) dispatch(ctx context.Context, channel, payload string) {
	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers[channel]...)
	l.mu.RUnlock()

	logger.Debug(ctx, "notification received", "channel", channel, "payload", payload, "handlers", len(handlers))
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "notification handler panic", "channel", channel, "panic", r)
				}
			}()
			h(ctx, payload)
		}()
	}
}

func (l *Listener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
