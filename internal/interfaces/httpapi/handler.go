package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/live-scores/internal/domain/match"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
	"github.com/riskibarqy/live-scores/internal/platform/pubsub"
	"github.com/riskibarqy/live-scores/internal/platform/resilience"
	"github.com/riskibarqy/live-scores/internal/usecase"
)

const defaultKeepAlive = 15 * time.Second

// UpstreamStatus exposes the breaker for diagnostics.
type UpstreamStatus interface {
	Snapshot() resilience.Snapshot
}

// QuotaUsage reports today's consumed provider requests and the daily limit.
type QuotaUsage interface {
	Usage(ctx context.Context) (int64, int64, error)
}

type HandlerConfig struct {
	KeepAlive time.Duration
}

type Handler struct {
	matchService     *usecase.MatchService
	standingsService *usecase.StandingsService
	hub              *pubsub.Hub
	upstream         UpstreamStatus
	quota            QuotaUsage
	cfg              HandlerConfig
	logger           *logging.Logger
	validator        *validator.Validate
	upgrader         websocket.Upgrader
}

func NewHandler(
	matchService *usecase.MatchService,
	standingsService *usecase.StandingsService,
	hub *pubsub.Hub,
	upstream UpstreamStatus,
	quota QuotaUsage,
	cfg HandlerConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}

	v := validator.New()
	_ = v.RegisterValidation("matchkey", func(fl validator.FieldLevel) bool {
		return match.IDFromKey(fl.Field().String()) > 0
	})
	_ = v.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
		topic := fl.Field().String()
		return topic == usecase.TopicLiveBoard || match.IDFromKey(topic) > 0
	})

	return &Handler{
		matchService:     matchService,
		standingsService: standingsService,
		hub:              hub,
		upstream:         upstream,
		quota:            quota,
		cfg:              cfg,
		logger:           logger,
		validator:        v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoard")
	defer span.End()

	board, err := h.matchService.BoardMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get board failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, board)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	req := matchRequest{MatchKey: strings.TrimSpace(r.PathValue("matchKey"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.matchService.Match(ctx, req.MatchKey)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, state)
}

// GetCompetitionTable passes the provider's table JSON through untouched.
func (h *Handler) GetCompetitionTable(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetitionTable")
	defer span.End()

	req := competitionTableRequest{CompetitionID: strings.TrimSpace(r.PathValue("competitionID"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := h.standingsService.CompetitionTable(ctx, req.CompetitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get competition table failed", "competition_id", req.CompetitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

func (h *Handler) GetUpstreamDiagnostics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUpstreamDiagnostics")
	defer span.End()

	out := upstreamDiagnosticsDTO{}
	if h.upstream != nil {
		snapshot := h.upstream.Snapshot()
		out.Open = snapshot.State == resilience.CircuitStateOpen
		out.Reason = snapshot.Reason
		out.Until = snapshot.Until
	}
	if h.quota != nil {
		used, limit, err := h.quota.Usage(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "read quota usage failed", "error", err)
		}
		out.QuotaUsed = used
		out.QuotaLimit = limit
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type matchRequest struct {
	MatchKey string `validate:"required,matchkey"`
}

type competitionTableRequest struct {
	CompetitionID string `validate:"required,numeric,min=1,max=12"`
}

type subscribeRequest struct {
	Topic string `validate:"required,topic"`
}

type upstreamDiagnosticsDTO struct {
	Open       bool       `json:"open"`
	Reason     string     `json:"reason,omitempty"`
	Until      *time.Time `json:"until,omitempty"`
	QuotaUsed  int64      `json:"quotaUsed"`
	QuotaLimit int64      `json:"quotaLimit"`
}
