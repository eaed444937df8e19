package server

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "cubetimer/internal/errors"
	"cubetimer/internal/metrics"
	"cubetimer/internal/record"
	"cubetimer/internal/storage"
	"cubetimer/internal/timer"
)

// RecordHandler serves the collaborator endpoints over a record store.
type RecordHandler struct {
	store  storage.Store
	hub    *Hub
	logger zerolog.Logger
	now    func() time.Time
}

type saveRequest struct {
	Time string `json:"time"`
}

type deleteRequest struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

func NewRecordHandler(store storage.Store, hub *Hub, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		store:  store,
		hub:    hub,
		logger: logger.With().Str("component", "records").Logger(),
		now:    time.Now,
	}
}

func (h *RecordHandler) Index(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list records")
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"records": record.Newest(records),
	})
}

func (h *RecordHandler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	formatted := strings.TrimSpace(req.Time)
	if formatted == "" {
		writeError(c, apperrors.BadRequest("missing_time", "No time provided"))
		return
	}
	if hasControl(formatted) {
		writeError(c, apperrors.BadRequest("invalid_time", "Time contains control characters"))
		return
	}

	rec := record.New(formatted, h.now())
	if err := h.store.Add(c.Request.Context(), rec); err != nil {
		h.logger.Error().Err(err).Str("time", formatted).Msg("Failed to save record")
		writeError(c, apperrors.Internal(""))
		return
	}

	metrics.RecordsSaved.Inc()
	if ms, err := timer.Parse(formatted); err == nil {
		metrics.SavedMilliseconds.Observe(float64(ms))
	}
	h.logger.Debug().Str("id", rec.ID).Str("time", rec.Time).Msg("Record saved")
	h.hub.Publish(record.Event{Type: record.EventSaved, Record: rec})

	writeSuccess(c, gin.H{"record": rec})
}

func (h *RecordHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return
	}

	var (
		rec record.Record
		err error
	)
	ctx := c.Request.Context()
	switch {
	case strings.TrimSpace(req.ID) != "":
		rec, err = h.store.Delete(ctx, strings.TrimSpace(req.ID))
	case strings.TrimSpace(req.Time) != "":
		formatted := strings.TrimSpace(req.Time)
		if hasControl(formatted) {
			writeError(c, apperrors.BadRequest("invalid_time", "Time contains control characters"))
			return
		}
		rec, err = h.store.DeleteByTime(ctx, formatted)
	default:
		writeError(c, apperrors.BadRequest("missing_time", "No time provided"))
		return
	}

	if errors.Is(err, storage.ErrNotFound) {
		metrics.RecordsDeleted.WithLabelValues("not_found").Inc()
		writeError(c, apperrors.NotFound("time_not_found", "Time not found"))
		return
	}
	if err != nil {
		metrics.RecordsDeleted.WithLabelValues("error").Inc()
		h.logger.Error().Err(err).Str("id", req.ID).Str("time", req.Time).Msg("Failed to delete record")
		writeError(c, apperrors.Internal(""))
		return
	}

	metrics.RecordsDeleted.WithLabelValues("deleted").Inc()
	h.logger.Debug().Str("id", rec.ID).Str("time", rec.Time).Msg("Record deleted")
	h.hub.Publish(record.Event{Type: record.EventDeleted, Record: rec})

	writeSuccess(c, gin.H{"record": rec})
}

func (h *RecordHandler) Times(c *gin.Context) {
	records, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record.Times(records))
}

func (h *RecordHandler) Records(c *gin.Context) {
	records, ok := h.list(c)
	if !ok {
		return
	}
	if records == nil {
		records = []record.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *RecordHandler) list(c *gin.Context) ([]record.Record, bool) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list records")
		writeError(c, apperrors.Internal(""))
		return nil, false
	}
	return records, true
}

// hasControl reports whether s holds characters that would split a stored line.
func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
