package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/metric"
	"github.com/sharetube/watchtogether/internal/repository/broker"
)

const eventFrameType = "event"

func (s service) Connect(ctx context.Context, params *ConnectParams) (ConnectResponse, error) {
	clientID := s.generator.GenerateClientID()
	if err := s.connRepo.Add(params.Conn, clientID); err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to add connection: %w", err)
	}

	metric.IncrementWSActiveConnections()
	s.logger.DebugContext(ctx, "client connected", "client_id", clientID)

	return ConnectResponse{ClientID: clientID}, nil
}

func (s service) Disconnect(ctx context.Context, params *ConnectParams) error {
	channels, err := s.connRepo.Remove(params.Conn)
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	metric.DecrementWSActiveConnections()
	s.logger.DebugContext(ctx, "client disconnected", "channels", channels)

	return nil
}

func (s service) Subscribe(ctx context.Context, params *SubscribeParams) error {
	if err := s.connRepo.Subscribe(params.Conn, params.Channel); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	return nil
}

func (s service) Unsubscribe(ctx context.Context, params *SubscribeParams) error {
	if err := s.connRepo.Unsubscribe(params.Conn, params.Channel); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	return nil
}

// Publish hands the event to the broker. A socket publisher joins the channel
// on its first publish and never gets its own event back through the socket.
func (s service) Publish(ctx context.Context, params *PublishParams) error {
	pub := broker.Publication{
		Channel: params.Channel,
		Event:   params.Event,
		Data:    params.Data,
	}

	source := "trigger"
	if params.SenderConn != nil {
		clientID, err := s.connRepo.GetClientID(params.SenderConn)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		}

		if !s.connRepo.IsSubscribed(params.SenderConn, params.Channel) {
			if err := s.connRepo.Subscribe(params.SenderConn, params.Channel); err != nil {
				return fmt.Errorf("failed to subscribe publisher: %w", err)
			}
		}

		pub.OriginID = clientID
		source = "socket"
	}

	if err := s.broker.Publish(ctx, &pub); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	metric.RecordPublished(source)

	return nil
}

func (s service) GetStats() Stats {
	channels, conns := s.connRepo.Stats()
	return Stats{Channels: channels, Connections: conns}
}

// Run delivers broker publications to local subscribers until ctx is done.
func (s service) Run(ctx context.Context) error {
	serve, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	return serve()
}

// Listen subscribes to the broker and returns the blocking delivery loop.
// Publications made after Listen returns are not missed.
func (s service) Listen(ctx context.Context) (func() error, error) {
	pubs, err := s.broker.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to broker: %w", err)
	}

	s.logger.InfoContext(ctx, "relay started")
	return func() error {
		return s.serve(ctx, pubs)
	}, nil
}

func (s service) serve(ctx context.Context, pubs <-chan *broker.Publication) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case pub, ok := <-pubs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: %w", ErrNotStarted, broker.ErrClosed)
			}
			s.deliver(ctx, pub)
		}
	}
}

func (s service) deliver(ctx context.Context, pub *broker.Publication) {
	conns := s.connRepo.GetSubscribers(pub.Channel, pub.OriginID)
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(&outboundFrame{
		Type: eventFrameType,
		Payload: Event{
			Channel: pub.Channel,
			Event:   pub.Event,
			Data:    pub.Data,
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to marshal event frame", "error", err)
		return
	}

	delivered := 0
	for _, conn := range conns {
		if err := s.connRepo.Send(conn, data); err != nil {
			metric.RecordDropped()
			s.logger.DebugContext(ctx, "failed to deliver event", "channel", pub.Channel, "error", err)
			continue
		}
		delivered++
	}
	metric.RecordDelivered(delivered)
}

// Send writes a control frame to one connection, serialized with deliveries.
func (s service) Send(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	if err := s.connRepo.Send(conn, data); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}

	return nil
}
