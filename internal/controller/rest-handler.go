package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	historyRepo "github.com/sharetube/watchtogether/internal/repository/history"
	uploadRepo "github.com/sharetube/watchtogether/internal/repository/upload"
	"github.com/sharetube/watchtogether/internal/service/history"
	"github.com/sharetube/watchtogether/internal/service/relay"
	"github.com/sharetube/watchtogether/internal/service/search"
	"github.com/sharetube/watchtogether/internal/service/upload"
	"github.com/sharetube/watchtogether/pkg/ytvideodata"
)

const (
	maxJSONBodySize   = 1 << 20
	triggerSecretKey  = "Trigger-Secret"
	uploadFormField   = "file"
	uploadCacheHeader = "public, max-age=31536000, immutable"
)

type triggerResponse struct {
	Success bool `json:"success"`
}

func (c controller) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		c.writeError(w, http.StatusBadRequest, "invalid json body", nil)
		return false
	}

	return true
}

func (c controller) trigger(w http.ResponseWriter, r *http.Request) {
	if c.cfg.TriggerSecret != "" && c.getHeader(r, triggerSecretKey) != c.cfg.TriggerSecret {
		c.writeError(w, http.StatusUnauthorized, "invalid trigger secret", nil)
		return
	}

	var payload publishPayload
	if !c.decodeJSON(w, r, &payload) {
		return
	}

	if err := c.validatePayload(&payload); err != nil {
		c.writeError(w, http.StatusBadRequest, "invalid trigger", err.(*validationError).details)
		return
	}

	if err := c.relayService.Publish(r.Context(), &relay.PublishParams{
		Channel: payload.Channel,
		Event:   payload.Event,
		Data:    payload.Data,
	}); err != nil {
		c.logger.ErrorContext(r.Context(), "failed to trigger event", "error", err)
		c.writeError(w, http.StatusInternalServerError, "failed to trigger event", nil)
		return
	}

	c.writeJSON(w, http.StatusOK, &triggerResponse{Success: true})
}

func (c controller) getStats(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.relayService.GetStats())
}

type listHistoryResponse struct {
	Records []historyRepo.Record `json:"records"`
}

func (c controller) listHistory(w http.ResponseWriter, r *http.Request) {
	kind := historyRepo.Kind(chi.URLParam(r, "kind"))

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		var err error
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			c.writeError(w, http.StatusBadRequest, "invalid limit", nil)
			return
		}
	}

	records, err := c.historyService.ListRecent(r.Context(), kind, limit)
	if err != nil {
		if errors.Is(err, historyRepo.ErrUnknownKind) {
			c.writeError(w, http.StatusNotFound, err.Error(), nil)
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to list history", "kind", kind, "error", err)
		c.writeError(w, http.StatusInternalServerError, "failed to load history", nil)
		return
	}

	if records == nil {
		records = []historyRepo.Record{}
	}

	c.writeJSON(w, http.StatusOK, &listHistoryResponse{Records: records})
}

func (c controller) writeHistoryResult(w http.ResponseWriter, result history.Result, err error) {
	switch {
	case err == nil:
		c.writeJSON(w, http.StatusCreated, result)
	case errors.Is(err, history.ErrInvalidInput):
		c.writeJSON(w, http.StatusBadRequest, result)
	default:
		c.writeJSON(w, http.StatusInternalServerError, result)
	}
}

func (c controller) appendChatMessage(w http.ResponseWriter, r *http.Request) {
	var params history.AppendChatMessageParams
	if !c.decodeJSON(w, r, &params) {
		return
	}

	result, err := c.historyService.AppendChatMessage(r.Context(), &params)
	c.writeHistoryResult(w, result, err)
}

func (c controller) appendMood(w http.ResponseWriter, r *http.Request) {
	var params history.AppendMoodParams
	if !c.decodeJSON(w, r, &params) {
		return
	}

	result, err := c.historyService.AppendMood(r.Context(), &params)
	c.writeHistoryResult(w, result, err)
}

func (c controller) appendMemory(w http.ResponseWriter, r *http.Request) {
	var params history.AppendMemoryParams
	if !c.decodeJSON(w, r, &params) {
		return
	}

	result, err := c.historyService.AppendMemory(r.Context(), &params)
	c.writeHistoryResult(w, result, err)
}

func (c controller) searchVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	music, _ := strconv.ParseBool(query.Get("music"))
	params := search.Params{
		Query:     query.Get("q"),
		PageToken: query.Get("pageToken"),
		Music:     music,
		Order:     query.Get("order"),
		Duration:  query.Get("duration"),
	}

	if err := c.validatePayload(&params); err != nil {
		c.writeError(w, http.StatusBadRequest, "invalid search", err.(*validationError).details)
		return
	}

	result, err := c.searchService.Search(r.Context(), &params)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrNoAPIKey):
			c.writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
		case errors.Is(err, search.ErrEmptyQuery):
			c.writeError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			c.logger.WarnContext(r.Context(), "video search failed", "error", err)
			c.writeError(w, http.StatusBadGateway, "video search failed", nil)
		}
		return
	}

	c.writeJSON(w, http.StatusOK, result)
}

func (c controller) getVideoData(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video-id")

	data, err := c.videoData.Get(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, ytvideodata.ErrVideoNotFound) {
			c.writeError(w, http.StatusNotFound, err.Error(), nil)
			return
		}

		c.logger.WarnContext(r.Context(), "failed to fetch video data", "video_id", videoID, "error", err)
		c.writeError(w, http.StatusBadGateway, "failed to fetch video data", nil)
		return
	}

	c.writeJSON(w, http.StatusOK, data)
}

func (c controller) uploadFile(w http.ResponseWriter, r *http.Request) {
	if c.cfg.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.cfg.MaxUploadSize+maxJSONBodySize)
	}

	file, _, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.writeError(w, http.StatusRequestEntityTooLarge, upload.ErrTooLarge.Error(), nil)
			return
		}

		c.writeError(w, http.StatusBadRequest, "missing file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.writeError(w, http.StatusBadRequest, "failed to read file", nil)
		return
	}

	resp, err := c.uploadService.Upload(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			c.writeError(w, http.StatusRequestEntityTooLarge, err.Error(), nil)
		case errors.Is(err, upload.ErrEmpty), errors.Is(err, upload.ErrUnsupportedType):
			c.writeError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			c.logger.ErrorContext(r.Context(), "failed to store upload", "error", err)
			c.writeError(w, http.StatusInternalServerError, "failed to store upload", nil)
		}
		return
	}

	c.writeJSON(w, http.StatusCreated, resp)
}

func (c controller) getUpload(w http.ResponseWriter, r *http.Request) {
	data, info, err := c.uploadService.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, uploadRepo.ErrObjectNotFound) {
			c.writeError(w, http.StatusNotFound, err.Error(), nil)
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to load upload", "error", err)
		c.writeError(w, http.StatusInternalServerError, "failed to load upload", nil)
		return
	}

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Cache-Control", uploadCacheHeader)
	w.Header().Set("Content-Length", strconv.FormatUint(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
