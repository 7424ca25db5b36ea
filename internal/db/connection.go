package db

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	applog "cli-page/internal/log"
)

const (
	connectTimeout = 10 * time.Second
	closeTimeout   = 5 * time.Second
	pingTimeout    = 2 * time.Second

	applicationName = "cli-page"
)

// DB holds the single pgx connection used for document storage. A pgx.Conn
// is not safe for concurrent use, so every statement runs under mu.
type DB struct {
	mu   sync.Mutex
	Conn *pgx.Conn
	cfg  *pgx.ConnConfig
	log  *slog.Logger
}

// ConnectURI opens a connection from a postgres:// or postgresql:// URI.
// sslmode defaults to prefer.
func ConnectURI(uri string) (*DB, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return nil, fmt.Errorf("invalid URI: unsupported scheme %q", parsed.Scheme)
	}
	if q := parsed.Query(); q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
		parsed.RawQuery = q.Encode()
	}

	cfg, err := pgx.ParseConfig(parsed.String())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	if cfg.RuntimeParams["application_name"] == "" {
		cfg.RuntimeParams["application_name"] = applicationName
	}

	d := &DB{cfg: cfg}
	d.log = applog.WithComponent("db").With(slog.String("conn", d.ConnInfo()))
	if err := d.dial(); err != nil {
		return nil, err
	}
	d.log.Info("connected")
	return d, nil
}

func (d *DB) dial() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	conn, err := pgx.ConnectConfig(ctx, d.cfg)
	if err != nil {
		return fmt.Errorf("connect %s: %w", d.ConnInfo(), err)
	}
	d.Conn = conn
	return nil
}

// Reconnect drops the current connection and dials again.
func (d *DB) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reconnectLocked()
}

func (d *DB) reconnectLocked() error {
	d.closeLocked()
	if err := d.dial(); err != nil {
		d.log.Warn("reconnect failed", slog.Any("err", err))
		return err
	}
	d.log.Info("reconnected")
	return nil
}

func (d *DB) closeLocked() {
	if d.Conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := d.Conn.Close(ctx); err != nil {
		d.log.Debug("close connection", slog.Any("err", err))
	}
	d.Conn = nil
}

// Close closes the connection. It is safe to call more than once.
func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
}

// IsConnected pings the server.
func (d *DB) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Conn == nil || d.Conn.IsClosed() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return d.Conn.Ping(ctx) == nil
}

// ConnInfo is the connection target without the password.
func (d *DB) ConnInfo() string {
	host := d.cfg.Host + ":" + strconv.Itoa(int(d.cfg.Port))
	return fmt.Sprintf("postgres://%s@%s/%s", d.cfg.User, host, d.cfg.Database)
}

// withConn runs fn with the connection held, reconnecting once if the
// previous connection was dropped.
func (d *DB) withConn(fn func(conn *pgx.Conn) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Conn == nil || d.Conn.IsClosed() {
		if err := d.reconnectLocked(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}
	return fn(d.Conn)
}
