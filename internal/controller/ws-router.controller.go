package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/service/relay"
	"github.com/sharetube/watchtogether/pkg/validator"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

const (
	subscribeType   = "subscribe"
	unsubscribeType = "unsubscribe"
	publishType     = "publish"
	aliveType       = "alive"

	connectedType    = "connected"
	subscribedType   = "subscribed"
	unsubscribedType = "unsubscribed"
	errorType        = "error"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type channelPayload struct {
	Channel string `json:"channel" validate:"required,max=200"`
}

type publishPayload struct {
	Channel string          `json:"channel" validate:"required,max=200"`
	Event   string          `json:"event" validate:"required,max=100"`
	Data    json.RawMessage `json:"data"`
}

type connectedPayload struct {
	ClientID string `json:"clientId"`
}

type errorPayload struct {
	Message     string                      `json:"message"`
	MessageType string                      `json:"messageType,omitempty"`
	Details     []validator.ValidationError `json:"details,omitempty"`
}

type validationError struct {
	details []validator.ValidationError
}

func (e *validationError) Error() string {
	return "validation failed"
}

func (c controller) validatePayload(v any) error {
	if details, ok := c.validate.Validate(v); !ok {
		return &validationError{details: details}
	}

	return nil
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()
	r.Use(c.wsLoggingMw)
	r.OnError(c.handleWSError)

	wsrouter.AddRoute(r, subscribeType, c.handleSubscribe)
	wsrouter.AddRoute(r, unsubscribeType, c.handleUnsubscribe)
	wsrouter.AddRoute(r, publishType, c.handlePublish)
	wsrouter.AddRoute(r, aliveType, c.handleAlive)

	return r
}

func (c controller) handleSubscribe(ctx context.Context, conn *websocket.Conn, payload channelPayload) error {
	if err := c.validatePayload(&payload); err != nil {
		return err
	}

	if err := c.relayService.Subscribe(ctx, &relay.SubscribeParams{
		Conn:    conn,
		Channel: payload.Channel,
	}); err != nil {
		return err
	}

	return c.relayService.Send(ctx, conn, &Output{Type: subscribedType, Payload: payload})
}

func (c controller) handleUnsubscribe(ctx context.Context, conn *websocket.Conn, payload channelPayload) error {
	if err := c.validatePayload(&payload); err != nil {
		return err
	}

	if err := c.relayService.Unsubscribe(ctx, &relay.SubscribeParams{
		Conn:    conn,
		Channel: payload.Channel,
	}); err != nil {
		return err
	}

	return c.relayService.Send(ctx, conn, &Output{Type: unsubscribedType, Payload: payload})
}

func (c controller) handlePublish(ctx context.Context, conn *websocket.Conn, payload publishPayload) error {
	if err := c.validatePayload(&payload); err != nil {
		return err
	}

	return c.relayService.Publish(ctx, &relay.PublishParams{
		SenderConn: conn,
		Channel:    payload.Channel,
		Event:      payload.Event,
		Data:       payload.Data,
	})
}

func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, _ struct{}) error {
	return nil
}

func isClientError(err error) bool {
	return errors.Is(err, wsrouter.ErrInvalidMessage) ||
		errors.Is(err, wsrouter.ErrUnknownMessageType) ||
		errors.Is(err, connection.ErrNotSubscribed)
}

func (c controller) handleWSError(ctx context.Context, conn *websocket.Conn, err error) {
	payload := errorPayload{
		Message:     err.Error(),
		MessageType: wsrouter.GetMessageTypeFromCtx(ctx),
	}

	var vErr *validationError
	if errors.As(err, &vErr) {
		payload.Details = vErr.details
	} else if !isClientError(err) {
		c.logger.WarnContext(ctx, "failed to handle ws message", "error", err)
		payload.Message = "internal error"
	}

	if sendErr := c.relayService.Send(ctx, conn, &Output{Type: errorType, Payload: payload}); sendErr != nil {
		c.logger.DebugContext(ctx, "failed to send ws error", "error", sendErr)
	}
}
