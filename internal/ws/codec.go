package ws

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"signal-relay/internal/signaling"
)

// Codec converts frames to and from websocket messages.
// A connection picks one with ?codec= and keeps it for its lifetime.
type Codec interface {
	Name() string
	MessageType() websocket.MessageType
	Encode(f signaling.Frame) ([]byte, error)
	Decode(b []byte) (signaling.Frame, error)
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) MessageType() websocket.MessageType { return websocket.MessageText }

func (jsonCodec) Encode(f signaling.Frame) ([]byte, error) { return json.Marshal(f) }

func (jsonCodec) Decode(b []byte) (signaling.Frame, error) {
	var f signaling.Frame
	err := json.Unmarshal(b, &f)
	return f, err
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return "msgpack" }
func (msgpackCodec) MessageType() websocket.MessageType { return websocket.MessageBinary }

func (msgpackCodec) Encode(f signaling.Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

func (msgpackCodec) Decode(b []byte) (signaling.Frame, error) {
	// nested maps decode as map[string]any, same shape as the json codec
	var f signaling.Frame
	err := msgpack.Unmarshal(b, &f)
	return f, err
}

// CodecByName resolves the ?codec= query value; empty means json
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
