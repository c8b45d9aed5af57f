package transport

import (
	"strings"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Nats relays envelopes through a NATS cluster. Dash-separated topic names
// map onto dot-separated subjects so that subscribe patterns can use the
// server-side single-token wildcard.
type Nats struct {
	nc *nats.Conn
}

func NewNats(uri string) (*Nats, error) {
	nc, err := nats.Connect(uri,
		nats.Name("beacon"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Transport connection lost, reconnecting...")
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Nats{nc: nc}, nil
}

func subjectOf(topic string) string {
	return strings.ReplaceAll(topic, "-", ".")
}

func (v *Nats) Publish(topic string, event string, payload any) error {
	frame := models.UnifiedPush{Action: event, Payload: payload}
	return v.nc.Publish(subjectOf(topic), frame.Marshal())
}

func (v *Nats) Subscribe(pattern string, fn func(data []byte)) (func(), error) {
	sub, err := v.nc.Subscribe(subjectOf(pattern), func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = sub.Unsubscribe()
	}, nil
}

func (v *Nats) Close() {
	_ = v.nc.Drain()
}
