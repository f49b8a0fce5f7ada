package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgChannel = "afriotv_changes"

// Postgres carries signals with LISTEN/NOTIFY on a single channel; the
// notification payload is the changed path.
type Postgres struct {
	pool   *pgxpool.Pool
	hub    *hub
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open notify pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping notify pool: %w", err)
	}

	lctx, cancel := context.WithCancel(context.Background())
	p := &Postgres{
		pool:   pool,
		hub:    newHub(),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.listen(lctx)
	return p, nil
}

func (p *Postgres) listen(ctx context.Context) {
	defer close(p.done)
	backoff := time.Second

	for ctx.Err() == nil {
		err := p.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("change_listener_restart", "error", err, "backoff", backoff.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (p *Postgres) listenOnce(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	p.logger.Info("change_listener_started", "channel", pgChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// the connection may be unusable; do not return it to the pool
			conn.Conn().Close(context.Background())
			return err
		}
		p.hub.signal(n.Payload)
	}
}

func (p *Postgres) Publish(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", pgChannel, path); err != nil {
			return fmt.Errorf("notify %s: %w", path, err)
		}
	}
	return nil
}

func (p *Postgres) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	return p.hub.add(ctx, path), nil
}

func (p *Postgres) Close() error {
	p.cancel()
	<-p.done
	p.pool.Close()
	return nil
}
