// Package httpapi exposes the question answering engine and the
// knowledge graph's analytics queries over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yumeleng/scholar-qa-go/internal/ctxutil"
	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	domerrors "github.com/yumeleng/scholar-qa-go/internal/errors"
	"github.com/yumeleng/scholar-qa-go/internal/field"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/metrics"
	"github.com/yumeleng/scholar-qa-go/internal/ratelimit"
)

// Answerer resolves one question turn against a dialog context.
type Answerer interface {
	Answer(ctx context.Context, dctx *dialog.Context, question string) string
}

// GraphReader serves the analytics and listing queries the API exposes
// directly, bypassing the dialogue engine.
type GraphReader interface {
	HIndexDistribution(ctx context.Context) ([]int64, error)
	FieldDistribution(ctx context.Context, limit int) ([]kb.FieldCount, error)
	YearlyPublicationCounts(ctx context.Context) ([]kb.YearCount, error)
	CollaborationNetwork(ctx context.Context, name string, depth, edgeLimit int) (kb.Network, error)
	FieldNetwork(ctx context.Context, fieldName string, edgeLimit int) (kb.Network, error)
	ExpertsByInterest(ctx context.Context, fieldName string) ([]kb.Expert, error)
	ExpertsByInterestFuzzy(ctx context.Context, fieldName string) ([]kb.Expert, error)
	ExpertsByHIndexRange(ctx context.Context, min, max int64) ([]kb.Expert, error)
}

// Handler holds the HTTP handlers for the QA API.
type Handler struct {
	engine        Answerer
	sessions      *dialog.Manager
	limiter       *ratelimit.SessionLimiter
	graph         GraphReader
	norm          *field.Normalizer
	metrics       *metrics.Metrics
	logger        *logger.Logger
	answerTimeout time.Duration
	fieldLimit    int
	edgeLimit     int
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	Engine        Answerer
	Sessions      *dialog.Manager
	Limiter       *ratelimit.SessionLimiter
	Graph         GraphReader
	Normalizer    *field.Normalizer
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	AnswerTimeout time.Duration
	FieldLimit    int // entries in the field distribution export
	EdgeLimit     int // edges per network export
}

// NewHandler creates the API handler set.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		engine:        cfg.Engine,
		sessions:      cfg.Sessions,
		limiter:       cfg.Limiter,
		graph:         cfg.Graph,
		norm:          cfg.Normalizer,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.WithModule("httpapi"),
		answerTimeout: cfg.AnswerTimeout,
		fieldLimit:    cfg.FieldLimit,
		edgeLimit:     cfg.EdgeLimit,
	}
}

// qaRequest is the POST /api/qa body. A missing session_id starts a new
// dialog session.
type qaRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

type qaResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// HandleQA answers one question turn.
func (h *Handler) HandleQA(c *gin.Context) {
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, domerrors.NewValidationError("question", "question is required"))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.badRequest(c, domerrors.NewValidationError("question", "question is required"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if !h.limiter.Allow(sessionID) {
		h.logger.WithSessionID(sessionID).WithError(domerrors.ErrRateLimitExceeded).Warn("Question dropped by session rate limit")
		c.Header("Retry-After", "2")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many questions, slow down"})
		return
	}

	ctx := ctxutil.WithSessionID(c.Request.Context(), sessionID)
	ctx, cancel := context.WithTimeout(ctx, h.answerTimeout)
	defer cancel()

	dctx := h.sessions.Get(sessionID)
	answer := h.engine.Answer(ctx, dctx, req.Question)

	c.JSON(http.StatusOK, qaResponse{
		SessionID: sessionID,
		Question:  req.Question,
		Answer:    answer,
	})
}

// HandleHIndexStats exports the h-index values of all experts, for
// client-side histograms.
func (h *Handler) HandleHIndexStats(c *gin.Context) {
	values, err := h.graph.HIndexDistribution(c.Request.Context())
	if err != nil {
		h.serverError(c, "h-index distribution query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"h_indexes": values, "count": len(values)})
}

// HandleFieldStats exports the most populated research fields.
func (h *Handler) HandleFieldStats(c *gin.Context) {
	limit := h.intQuery(c, "limit", h.fieldLimit)
	fields, err := h.graph.FieldDistribution(c.Request.Context(), limit)
	if err != nil {
		h.serverError(c, "field distribution query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// HandleYearlyStats exports publication counts per year.
func (h *Handler) HandleYearlyStats(c *gin.Context) {
	years, err := h.graph.YearlyPublicationCounts(c.Request.Context())
	if err != nil {
		h.serverError(c, "yearly publication query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

// HandleCollaborationNetwork exports the co-authorship neighborhood of
// one expert as a node/link graph.
func (h *Handler) HandleCollaborationNetwork(c *gin.Context) {
	expert := strings.TrimSpace(c.Query("expert"))
	if expert == "" {
		h.badRequest(c, domerrors.NewValidationError("expert", "expert query parameter is required"))
		return
	}
	depth := h.intQuery(c, "depth", 2)

	network, err := h.graph.CollaborationNetwork(c.Request.Context(), expert, depth, h.edgeLimit)
	if err != nil {
		h.serverError(c, "collaboration network query failed", err)
		return
	}
	c.JSON(http.StatusOK, network)
}

// HandleFieldNetwork exports the field co-occurrence graph, optionally
// centered on one field.
func (h *Handler) HandleFieldNetwork(c *gin.Context) {
	fieldName := h.norm.Normalize(strings.TrimSpace(c.Query("field")))

	network, err := h.graph.FieldNetwork(c.Request.Context(), fieldName, h.edgeLimit)
	if err != nil {
		h.serverError(c, "field network query failed", err)
		return
	}
	c.JSON(http.StatusOK, network)
}

// HandleExperts lists experts by field or by h-index range. Field
// lookups fall back to substring matching when the exact name misses.
func (h *Handler) HandleExperts(c *gin.Context) {
	ctx := c.Request.Context()

	if fieldName := strings.TrimSpace(c.Query("field")); fieldName != "" {
		normalized := h.norm.Normalize(fieldName)
		experts, err := h.graph.ExpertsByInterest(ctx, normalized)
		if err != nil {
			h.serverError(c, "expert listing query failed", err)
			return
		}
		if len(experts) == 0 {
			experts, err = h.graph.ExpertsByInterestFuzzy(ctx, normalized)
			if err != nil {
				h.serverError(c, "expert listing query failed", err)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"field": normalized, "experts": experts})
		return
	}

	minH := int64(h.intQuery(c, "min_h", 0))
	maxH := int64(h.intQuery(c, "max_h", 1<<31))
	experts, err := h.graph.ExpertsByHIndexRange(ctx, minH, maxH)
	if err != nil {
		h.serverError(c, "expert listing query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"experts": experts})
}

func (h *Handler) badRequest(c *gin.Context, verr *domerrors.ValidationError) {
	h.logger.WithError(verr).Debugf("Rejected request on %s", c.Request.URL.Path)
	h.metrics.RecordHTTPError("bad_request")
	c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
}

func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	if errors.Is(err, domerrors.ErrTimeout) {
		h.metrics.RecordHTTPError("store_timeout")
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": msg})
		return
	}
	h.metrics.RecordHTTPError("store_error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// intQuery reads an integer query parameter, falling back to def when
// absent or malformed.
func (h *Handler) intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
