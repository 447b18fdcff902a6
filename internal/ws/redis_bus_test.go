package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-relay/internal/signaling"
)

func TestBusPublishStampsOrigin(t *testing.T) {
	b := newRedisBus(nil, "node-a", slog.New(slog.NewTextHandler(io.Discard, nil)))

	b.Publish(signaling.Envelope{RoomID: "r1", Frame: signaling.UserJoined("bob", "r1", false)})

	e := <-b.queue
	assert.Equal(t, "node-a", e.Origin)
	assert.Equal(t, "relay:r1", channel(e.RoomID))
}

func TestBusDecodeSkipsOwnEnvelopes(t *testing.T) {
	b := newRedisBus(nil, "node-a", slog.New(slog.NewTextHandler(io.Discard, nil)))

	mine, err := json.Marshal(signaling.Envelope{Origin: "node-a", RoomID: "r1"})
	require.NoError(t, err)
	_, ok := b.decode(string(mine))
	assert.False(t, ok)

	theirs, err := json.Marshal(signaling.Envelope{
		Origin: "node-b",
		RoomID: "r1",
		To:     "bob",
		Frame:  signaling.Frame{Event: signaling.EventOffer, Data: signaling.Payload{"from": "carol", "to": "bob"}},
	})
	require.NoError(t, err)
	e, ok := b.decode(string(theirs))
	require.True(t, ok)
	assert.Equal(t, "bob", e.To)
	assert.Equal(t, "carol", e.Frame.Data.String("from"))

	_, ok = b.decode("{")
	assert.False(t, ok)
}
