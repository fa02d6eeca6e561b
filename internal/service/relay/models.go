package relay

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

type ConnectParams struct {
	Conn *websocket.Conn
}

type ConnectResponse struct {
	ClientID string
}

type SubscribeParams struct {
	Conn    *websocket.Conn
	Channel string
}

type PublishParams struct {
	// SenderConn is nil for events published through the trigger endpoint.
	SenderConn *websocket.Conn
	Channel    string
	Event      string
	Data       json.RawMessage
}

type Event struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

type Stats struct {
	Channels    int `json:"channels"`
	Connections int `json:"connections"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}
