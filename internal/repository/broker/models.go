package broker

import (
	"encoding/json"
	"errors"
)

var ErrClosed = errors.New("broker closed")

// Publication is one event on a relay channel. OriginID is the publishing
// connection's client id, empty when the event came through the trigger endpoint.
type Publication struct {
	Channel  string          `json:"channel"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
	OriginID string          `json:"origin_id,omitempty"`
}
