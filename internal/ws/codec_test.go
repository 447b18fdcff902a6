package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"signal-relay/internal/signaling"
)

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())
	assert.Equal(t, websocket.MessageText, c.MessageType())

	c, err = CodecByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, c.MessageType())

	_, err = CodecByName("xml")
	assert.Error(t, err)
}

func TestCodecsKeepOpaquePayloadNested(t *testing.T) {
	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			c, err := CodecByName(name)
			require.NoError(t, err)

			in := signaling.Frame{Event: signaling.EventICECandidate, Data: signaling.Payload{
				"to":        "bob",
				"candidate": map[string]any{"candidate": "candidate:1 1 udp", "sdpMid": "0"},
			}}
			b, err := c.Encode(in)
			require.NoError(t, err)

			out, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, in.Event, out.Event)
			assert.Equal(t, "bob", out.Data.String("to"))
			assert.Equal(t, map[string]any{"candidate": "candidate:1 1 udp", "sdpMid": "0"}, out.Data["candidate"])
		})
	}
}
