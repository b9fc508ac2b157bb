// Package v1 is the REST surface the desktop shell talks to. Every handler
// works on whole-document semantics: mutate the in-memory board graph, write
// the documents through, respond with the updated records.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/ramify-app/ramify/internal/profile"
	apierrors "github.com/ramify-app/ramify/server/internal/errors"
	"github.com/ramify-app/ramify/server/internal/observability"
	"github.com/ramify-app/ramify/server/middleware"
	"github.com/ramify-app/ramify/server/usage"
	"github.com/ramify-app/ramify/store"
	"github.com/ramify-app/ramify/store/cache"
)

// APIV1Service wires the store and the AI pipeline into echo routes.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	catalogCache *cache.Cache
	aiLimiter    *middleware.RateLimiter
	usageTracker *usage.Tracker
	// generationGate serializes provider calls. Answer generation and its
	// dependent topic extraction must run in sequence, and a desktop shell
	// gets no benefit from concurrent completions against one key.
	generationGate *semaphore.Weighted
}

// NewAPIV1Service creates the service with its limiter and caches.
func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		catalogCache: cache.New(cache.Config{
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: time.Minute,
			MaxItems:        4,
		}),
		aiLimiter:      middleware.NewRateLimiter(time.Second, 3),
		usageTracker:   usage.NewTracker(),
		generationGate: semaphore.NewWeighted(1),
	}
}

// RegisterRoutes mounts the API on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	apiGroup := e.Group("/api/v1")

	apiGroup.GET("/models", s.GetModelCatalog)
	apiGroup.GET("/settings", s.GetSettings)
	apiGroup.PATCH("/settings", s.UpdateSettings)
	apiGroup.GET("/system/metrics", s.GetSystemMetrics)
	apiGroup.GET("/system/usage", s.GetSystemUsage)

	boardGroup := apiGroup.Group("/boards")
	boardGroup.POST("", s.CreateBoard)
	boardGroup.GET("", s.ListBoards)
	boardGroup.GET("/:board", s.GetBoard)
	boardGroup.PATCH("/:board", s.UpdateBoard)
	boardGroup.DELETE("/:board", s.DeleteBoard)
	boardGroup.POST("/:board/save", s.SaveBoard)

	boardGroup.GET("/:board/nodes", s.ListNodes)
	boardGroup.POST("/:board/nodes", s.CreateNode)
	boardGroup.PATCH("/:board/nodes/:node", s.UpdateNode)
	boardGroup.DELETE("/:board/nodes/:node", s.DeleteNode)
	boardGroup.POST("/:board/nodes/:node/reparent", s.ReparentNode)
	boardGroup.POST("/:board/nodes/:node/main-parent", s.SetMainParent)
	boardGroup.POST("/:board/nodes/:node/unlink", s.UnlinkNode)
	boardGroup.GET("/:board/nodes/:node/subtree", s.GetSubtree)
	boardGroup.GET("/:board/nodes/:node/state", s.GetQuestionState)
	boardGroup.POST("/:board/nodes/:node/duplicate", s.DuplicateQuestion)

	boardGroup.GET("/:board/summaries", s.ListSummaries)

	// Generation routes burn provider budget; they get the per-board
	// limiter on top of the global sequencing gate.
	generationGroup := boardGroup.Group("", s.aiLimiter.Middleware())
	generationGroup.POST("/:board/nodes/:node/ask", s.AskQuestion)
	generationGroup.POST("/:board/nodes/:node/topics", s.ExtractTopics)
	generationGroup.POST("/:board/nodes/:node/note", s.GenerateNote)
	generationGroup.POST("/:board/summaries", s.CreateSummary)
}

// respondError translates an engine error into its wire payload.
func respondError(c echo.Context, err error) error {
	code := apierrors.Classify(err)
	return c.JSON(apierrors.HTTPStatus(code), apierrors.Payload{Code: code, Message: err.Error()})
}

// respondInvalid rejects a malformed request.
func respondInvalid(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, apierrors.Payload{Code: apierrors.CodeInvalidArgument, Message: msg})
}

// beginOperation starts metrics and request-scoped logging for one AI
// operation. The returned func records the outcome.
func (s *APIV1Service) beginOperation(c echo.Context, operation, boardID string) (*observability.RequestContext, func(error)) {
	reqCtx := observability.NewRequestContextWithID(slog.Default(), middleware.RequestID(c), operation, boardID)
	metrics := observability.GlobalMetrics()
	metrics.RecordRequest(operation)
	return reqCtx, func(err error) {
		metrics.RecordDuration(operation, time.Since(reqCtx.StartTime))
		if err != nil {
			metrics.RecordFailure(operation)
			reqCtx.Error(operation+" failed", err,
				slog.String(observability.LogFieldErrorCode, string(apierrors.Classify(err))))
			return
		}
		reqCtx.Info(operation+" completed",
			slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	}
}

// MetricsOverviewResponse is the system metrics overview.
type MetricsOverviewResponse struct {
	TotalRequests  int64                                       `json:"totalRequests"`
	FailedRequests int64                                       `json:"failedRequests"`
	SuccessRate    float64                                     `json:"successRate"`
	Operations     map[string]*observability.OperationSnapshot `json:"operations"`
}

// GetSystemMetrics returns counters for the AI operations.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetSystemMetrics(c echo.Context) error {
	snapshot := observability.GlobalMetrics().Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests:  snapshot.RequestTotal,
		FailedRequests: snapshot.RequestFailed,
		SuccessRate:    snapshot.SuccessRate(),
		Operations:     snapshot.Operations,
	})
}

// GetSystemUsage returns the token ledger accumulated since startup.
// GET /api/v1/system/usage
func (s *APIV1Service) GetSystemUsage(c echo.Context) error {
	return c.JSON(http.StatusOK, s.usageTracker.Report())
}
