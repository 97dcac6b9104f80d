package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/avvvet/cardkey-services/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return f.err
}

func TestPublishEvents(t *testing.T) {
	conn := &fakeConn{}
	b := NewBroker(conn, "inst-1")
	fixed := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	b.CardKeysGenerated(context.Background(), 42)
	b.CardKeyRedeemed(context.Background(), "ABCDE-12345-FGHIJ-67890-KLMNO", fixed)

	require.Len(t, conn.payloads, 2)
	assert.Equal(t, []string{comm.CardKeyEventsSubject, comm.CardKeyEventsSubject}, conn.subjects)

	var gen comm.CardKeyEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &gen))
	assert.Equal(t, comm.EventGenerated, gen.Type)
	assert.Equal(t, 42, gen.Count)
	assert.Equal(t, "inst-1", gen.InstanceId)
	assert.True(t, fixed.Equal(gen.At))

	var red comm.CardKeyEvent
	require.NoError(t, json.Unmarshal(conn.payloads[1], &red))
	assert.Equal(t, comm.EventRedeemed, red.Type)
	assert.Equal(t, "ABCDE-12345-FGHIJ-67890-KLMNO", red.KeyCode)
}

func TestPublishErrorIsSwallowed(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	b := NewBroker(conn, "inst-1")
	assert.NotPanics(t, func() { b.CardKeysGenerated(context.Background(), 1) })
	assert.Len(t, conn.payloads, 1)
}

func TestNilConnIsNoop(t *testing.T) {
	b := NewBroker(nil, "inst-1")
	assert.NotPanics(t, func() { b.CardKeyRedeemed(context.Background(), "x", time.Now()) })
}
