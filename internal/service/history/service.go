package history

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/sharetube/watchtogether/internal/repository/history"
	"github.com/sharetube/watchtogether/pkg/validator"
)

var ErrInvalidInput = errors.New("invalid input")

type iHistoryRepo interface {
	Append(context.Context, *history.AppendParams) (history.Record, error)
	ListRecent(context.Context, history.Kind, int) ([]history.Record, error)
}

type Config struct {
	ChatLimit   int
	MoodLimit   int
	MemoryLimit int
}

func DefaultConfig() Config {
	return Config{
		ChatLimit:   100,
		MoodLimit:   30,
		MemoryLimit: 50,
	}
}

type service struct {
	repo     iHistoryRepo
	validate *validator.Validator
	cfg      Config
	logger   *slog.Logger
}

func NewService(repo iHistoryRepo, cfg Config, logger *slog.Logger) *service {
	return &service{
		repo:     repo,
		validate: validator.NewValidator(),
		cfg:      cfg,
		logger:   logger,
	}
}

type AppendChatMessageParams struct {
	Username string `json:"username" validate:"required,max=50"`
	Message  string `json:"message" validate:"required,max=2000"`
}

type AppendMoodParams struct {
	Username string `json:"username" validate:"required,max=50"`
	Mood     string `json:"mood" validate:"required,max=50"`
}

type AppendMemoryParams struct {
	Username string  `json:"username" validate:"required,max=50"`
	ImageURL string  `json:"imageUrl" validate:"required,url"`
	Caption  *string `json:"caption" validate:"omitempty,max=500"`
}

// Result mirrors the {success, error} object handed back to history callers.
type Result struct {
	Success bool                        `json:"success"`
	Record  *history.Record             `json:"record,omitempty"`
	Error   string                      `json:"error,omitempty"`
	Details []validator.ValidationError `json:"details,omitempty"`
}

func (s service) append(ctx context.Context, input any, params *history.AppendParams) (Result, error) {
	if errs, ok := s.validate.Validate(input); !ok {
		return Result{Error: ErrInvalidInput.Error(), Details: errs}, ErrInvalidInput
	}

	record, err := s.repo.Append(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append history record", "kind", params.Kind, "error", err)
		return Result{Error: "failed to save"}, err
	}

	return Result{Success: true, Record: &record}, nil
}

func (s service) AppendChatMessage(ctx context.Context, params *AppendChatMessageParams) (Result, error) {
	return s.append(ctx, params, &history.AppendParams{
		Kind:     history.KindChat,
		Username: params.Username,
		Payload:  params.Message,
	})
}

func (s service) AppendMood(ctx context.Context, params *AppendMoodParams) (Result, error) {
	return s.append(ctx, params, &history.AppendParams{
		Kind:     history.KindMood,
		Username: params.Username,
		Payload:  params.Mood,
	})
}

func (s service) AppendMemory(ctx context.Context, params *AppendMemoryParams) (Result, error) {
	caption := params.Caption
	if caption != nil && *caption == "" {
		caption = nil
	}

	return s.append(ctx, params, &history.AppendParams{
		Kind:     history.KindMemory,
		Username: params.Username,
		Payload:  params.ImageURL,
		Caption:  caption,
	})
}

func (s service) limit(kind history.Kind, requested int) int {
	capped := s.cfg.ChatLimit
	switch kind {
	case history.KindMood:
		capped = s.cfg.MoodLimit
	case history.KindMemory:
		capped = s.cfg.MemoryLimit
	}

	if requested <= 0 || requested > capped {
		return capped
	}

	return requested
}

// ListRecent returns chat oldest first so it renders as a conversation;
// moods and memories stay newest first.
func (s service) ListRecent(ctx context.Context, kind history.Kind, limit int) ([]history.Record, error) {
	if !kind.Valid() {
		return nil, history.ErrUnknownKind
	}

	records, err := s.repo.ListRecent(ctx, kind, s.limit(kind, limit))
	if err != nil {
		return nil, err
	}

	if kind == history.KindChat {
		slices.Reverse(records)
	}

	return records, nil
}
