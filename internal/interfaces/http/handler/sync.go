package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appsync "github.com/orderdash/backend/internal/application/sync"
	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/interfaces/http/dto"
)

// SyncService is the slice of the orchestrator exposed over HTTP.
type SyncService interface {
	Run(ctx context.Context, syncType syncstate.SyncType) (*appsync.RunSummary, error)
	RetryFailed(ctx context.Context, batchSize int) (*appsync.RetrySummary, error)
}

// SyncHandler exposes the sync pipelines and their state over HTTP.
type SyncHandler struct {
	BaseHandler
	service        SyncService
	checkpointRepo syncstate.CheckpointRepository
	logRepo        syncstate.SyncLogRepository
	failedRepo     syncstate.FailedSyncRepository
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(
	service SyncService,
	checkpointRepo syncstate.CheckpointRepository,
	logRepo syncstate.SyncLogRepository,
	failedRepo syncstate.FailedSyncRepository,
) *SyncHandler {
	return &SyncHandler{
		service:        service,
		checkpointRepo: checkpointRepo,
		logRepo:        logRepo,
		failedRepo:     failedRepo,
	}
}

// RegisterRoutes registers sync routes on the given group.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/:type/run", h.TriggerSync)
		sync.GET("/checkpoints", h.ListCheckpoints)
		sync.GET("/logs", h.ListLogs)
		sync.GET("/failures", h.ListFailures)
		sync.POST("/failures/retry", h.RetryFailures)
	}
}

// TriggerSync runs one sync pipeline immediately, bypassing the interval
// gate. The in-progress gate still applies.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	syncType := syncstate.SyncType(c.Param("type"))
	if !syncType.IsValid() {
		h.BadRequest(c, "unknown sync type: "+c.Param("type"))
		return
	}

	summary, err := h.service.Run(c.Request.Context(), syncType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.RunSummaryResponse{
		SyncType: summary.SyncType.String(),
		Status:   string(summary.Status),
		Fetched:  summary.Fetched,
		Created:  summary.Created,
		Updated:  summary.Updated,
		Skipped:  summary.Skipped,
		Failed:   summary.Failed,
		Duration: summary.Duration.String(),
	})
}

// ListCheckpoints returns every checkpoint with its current state.
func (h *SyncHandler) ListCheckpoints(c *gin.Context) {
	checkpoints, err := h.checkpointRepo.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.CheckpointResponse, 0, len(checkpoints))
	for i := range checkpoints {
		out = append(out, dto.CheckpointFromDomain(&checkpoints[i]))
	}
	h.Success(c, out)
}

// ListLogs returns recent sync run summaries, newest first.
func (h *SyncHandler) ListLogs(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	limit := req.LimitOrDefault()

	logs, err := h.logRepo.FindRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.SyncLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, dto.SyncLogFromDomain(&logs[i]))
	}
	h.SuccessWithMeta(c, out, len(out), limit)
}

// ListFailures returns recent failed-sync records, newest first.
func (h *SyncHandler) ListFailures(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	limit := req.LimitOrDefault()

	records, err := h.failedRepo.FindRecent(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.FailedRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.FailedRecordFromDomain(&records[i]))
	}
	h.SuccessWithMeta(c, out, len(out), limit)
}

// RetryFailures replays due failed-sync records immediately.
func (h *SyncHandler) RetryFailures(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.service.RetryFailed(c.Request.Context(), req.LimitOrDefault())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.RetrySummaryResponse{
		Attempted: summary.Attempted,
		Resolved:  summary.Resolved,
		Deferred:  summary.Deferred,
	})
}
