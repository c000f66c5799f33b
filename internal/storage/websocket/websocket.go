// Package wsstorage streams link changes to an ingest server over WebSocket.
package wsstorage

import (
	"log/slog"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/ProjectAether/navlink/internal/storage/memory"
	"github.com/ProjectAether/navlink/pkg/core"
	"github.com/ProjectAether/navlink/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams every link write and keeps a local mirror so Links can be
// answered without a round trip.
type Backend struct {
	conn    *connection
	cfg     Config
	mirror  *memory.Backend
	session func() string
	version string
}

// New creates a new WebSocket storage backend. session reports the level
// announced on connect and may be nil.
func New(cfg Config, logger *slog.Logger, session func() string) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if session == nil {
		session = func() string { return "" }
	}
	return &Backend{
		conn:    newConnection(logger.With("backend", "websocket")),
		cfg:     cfg,
		mirror:  memory.New(config.MemoryConfig{}),
		session: session,
	}
}

// Init connects and announces the current session, waiting for its ack.
func (b *Backend) Init() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}
	return b.Announce(b.session())
}

// Announce tells the server which level the following links belong to.
// The announcement is replayed after every reconnect.
func (b *Backend) Announce(level string) error {
	data, err := streaming.Marshal(streaming.TypeSession, streaming.SessionPayload{
		Level:            level,
		ExtensionVersion: b.version,
	})
	if err != nil {
		return err
	}
	b.conn.setSession(data)
	return b.conn.sendAndWait(data, streaming.TypeSession, ackTimeout)
}

// SetExtensionVersion stamps the version sent with session announcements.
func (b *Backend) SetExtensionVersion(v string) {
	b.version = v
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// SaveLink sends a link upsert (fire-and-forget).
func (b *Backend) SaveLink(r *core.LinkRecord) error {
	if err := b.mirror.SaveLink(r); err != nil {
		return err
	}
	return b.send(streaming.TypeLinkUpsert, r)
}

// DeleteLink sends a link deletion (fire-and-forget).
func (b *Backend) DeleteLink(id string) error {
	if err := b.mirror.DeleteLink(id); err != nil {
		return err
	}
	return b.send(streaming.TypeLinkDelete, streaming.LinkDeletePayload{ID: id})
}

// Links returns the links sent during this connection.
func (b *Backend) Links() ([]core.LinkRecord, error) {
	return b.mirror.Links()
}

// Dropped returns how many messages were discarded because the send queue
// was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// Reconnects returns how many times the connection was re-established.
func (b *Backend) Reconnects() uint64 {
	return b.conn.reconnects.Load()
}

func (b *Backend) send(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
