package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DialNATS connects to a NATS server with reconnect logging.
func DialNATS(url string, log zerolog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("p2pdesk"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Bridge republishes hub events onto NATS subjects.
type Bridge struct {
	conn   *nats.Conn
	prefix string
	log    zerolog.Logger
}

// NewBridge creates a bridge publishing under prefix, e.g. "p2pdesk".
func NewBridge(conn *nats.Conn, prefix string, log zerolog.Logger) *Bridge {
	return &Bridge{conn: conn, prefix: prefix, log: log}
}

// Subject returns the NATS subject for an event type.
func Subject(prefix, eventType string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Run forwards events from hub until ctx is done.
func (b *Bridge) Run(ctx context.Context, hub *Hub) {
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				b.log.Error().Err(err).Str("event", ev.Type).Msg("failed to marshal event")
				continue
			}
			if err := b.conn.Publish(Subject(b.prefix, ev.Type), data); err != nil {
				b.log.Error().Err(err).Str("event", ev.Type).Msg("failed to publish event")
			}
		}
	}
}
