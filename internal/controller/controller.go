package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	historyRepo "github.com/sharetube/watchtogether/internal/repository/history"
	uploadRepo "github.com/sharetube/watchtogether/internal/repository/upload"
	"github.com/sharetube/watchtogether/internal/service/history"
	"github.com/sharetube/watchtogether/internal/service/relay"
	"github.com/sharetube/watchtogether/internal/service/search"
	"github.com/sharetube/watchtogether/internal/service/upload"
	"github.com/sharetube/watchtogether/pkg/validator"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
	"github.com/sharetube/watchtogether/pkg/ytvideodata"
)

type iRelayService interface {
	Connect(context.Context, *relay.ConnectParams) (relay.ConnectResponse, error)
	Disconnect(context.Context, *relay.ConnectParams) error
	Subscribe(context.Context, *relay.SubscribeParams) error
	Unsubscribe(context.Context, *relay.SubscribeParams) error
	Publish(context.Context, *relay.PublishParams) error
	Send(context.Context, *websocket.Conn, any) error
	GetStats() relay.Stats
}

type iHistoryService interface {
	AppendChatMessage(context.Context, *history.AppendChatMessageParams) (history.Result, error)
	AppendMood(context.Context, *history.AppendMoodParams) (history.Result, error)
	AppendMemory(context.Context, *history.AppendMemoryParams) (history.Result, error)
	ListRecent(context.Context, historyRepo.Kind, int) ([]historyRepo.Record, error)
}

type iSearchService interface {
	Search(context.Context, *search.Params) (search.Result, error)
}

type iVideoDataFetcher interface {
	Get(ctx context.Context, videoID string) (*ytvideodata.VideoData, error)
}

type iUploadService interface {
	Upload(context.Context, []byte) (upload.UploadResponse, error)
	Get(context.Context, string) ([]byte, *uploadRepo.ObjectInfo, error)
}

type Config struct {
	// TriggerSecret, when set, must be sent with every trigger request.
	TriggerSecret  string
	MaxMessageSize int64
	MaxUploadSize  int64
	PongWait       time.Duration
}

type controller struct {
	relayService   iRelayService
	historyService iHistoryService
	searchService  iSearchService
	videoData      iVideoDataFetcher
	uploadService  iUploadService
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	logger         *slog.Logger
	wsmux          *wsrouter.WSRouter
	cfg            Config
}

func NewController(
	relayService iRelayService,
	historyService iHistoryService,
	searchService iSearchService,
	videoData iVideoDataFetcher,
	uploadService iUploadService,
	cfg Config,
	logger *slog.Logger,
) *controller {
	if cfg.PongWait == 0 {
		cfg.PongWait = 60 * time.Second
	}

	c := &controller{
		relayService:   relayService,
		historyService: historyService,
		searchService:  searchService,
		videoData:      videoData,
		uploadService:  uploadService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
		cfg:      cfg,
	}
	c.wsmux = c.getWSRouter()

	return c
}
