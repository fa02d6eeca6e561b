package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/repository/broker"
)

var (
	ErrNotConnected = errors.New("connection is not registered")
	ErrNotStarted   = errors.New("relay is not running")
)

type iConnRepo interface {
	Add(*websocket.Conn, string) error
	Remove(*websocket.Conn) ([]string, error)
	Subscribe(*websocket.Conn, string) error
	Unsubscribe(*websocket.Conn, string) error
	IsSubscribed(*websocket.Conn, string) bool
	GetClientID(*websocket.Conn) (string, error)
	GetSubscribers(channel string, excludeClientID string) []*websocket.Conn
	Send(*websocket.Conn, []byte) error
	Stats() (int, int)
}

type iBroker interface {
	Publish(context.Context, *broker.Publication) error
	Subscribe(context.Context) (<-chan *broker.Publication, error)
}

type iGenerator interface {
	GenerateClientID() string
}

type service struct {
	connRepo  iConnRepo
	broker    iBroker
	generator iGenerator
	logger    *slog.Logger
}

func NewService(connRepo iConnRepo, broker iBroker, generator iGenerator, logger *slog.Logger) *service {
	return &service{
		connRepo:  connRepo,
		broker:    broker,
		generator: generator,
		logger:    logger,
	}
}
