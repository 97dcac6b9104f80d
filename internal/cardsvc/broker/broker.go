package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/cardkey-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Broker publishes card key events. Publishing is fire-and-forget: a
// failure is logged and never undoes the committed change.
type Broker struct {
	Conn       Publisher
	InstanceId string
	now        func() time.Time
}

func NewBroker(conn Publisher, instanceId string) *Broker {
	return &Broker{Conn: conn, InstanceId: instanceId, now: time.Now}
}

func (b *Broker) CardKeysGenerated(ctx context.Context, count int) {
	b.publish(comm.CardKeyEvent{
		Type:  comm.EventGenerated,
		Count: count,
		At:    b.now().UTC(),
	})
}

func (b *Broker) CardKeyRedeemed(ctx context.Context, code string, at time.Time) {
	b.publish(comm.CardKeyEvent{
		Type:    comm.EventRedeemed,
		KeyCode: code,
		At:      at,
	})
}

func (b *Broker) publish(ev comm.CardKeyEvent) {
	if b == nil || b.Conn == nil {
		return
	}
	ev.InstanceId = b.InstanceId

	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("Error marshal %s event: %s", ev.Type, err)
		return
	}
	if err := b.Conn.Publish(comm.CardKeyEventsSubject, data); err != nil {
		log.Errorf("Error publish %s event: %s", ev.Type, err)
	}
}
