package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/orrn/printq/internal/core"
	"github.com/orrn/printq/internal/db"
)

type ListQueueQuery struct {
	Limit   int    `form:"limit" binding:"max=100"`
	Keyword string `form:"keyword"`
}

type ListQueueResponse struct {
	Result  []core.PrintJob    `json:"result"`
	ClaimID string             `json:"claim_id,omitempty"`
	Skipped []core.SkippedItem `json:"skipped,omitempty"`
}

type AcknowledgeRequest struct {
	IDs []int64 `json:"ids"`
}

type AcknowledgeResponse struct {
	Status    string `json:"status"`
	Affected  int64  `json:"affected"`
	Requested int    `json:"requested"`
}

type ReleaseRequest struct {
	ClaimID string `json:"claim_id" binding:"required"`
}

type PrintQueueHandler struct {
	dispatcher *core.Dispatcher
}

func NewPrintQueueHandler(dispatcher *core.Dispatcher) *PrintQueueHandler {
	return &PrintQueueHandler{dispatcher: dispatcher}
}

// ListQueue runs one dispatch cycle and returns the batch. The result
// is empty, not an error, when nothing is pending.
func (h *PrintQueueHandler) ListQueue(c *gin.Context) {
	var query ListQueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.dispatcher.Dispatch(c.Request.Context(), query.Limit, query.Keyword)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to fetch print queue"})
		return
	}

	resp := ListQueueResponse{
		Result:  batch.Jobs,
		ClaimID: batch.ClaimID,
		Skipped: batch.Skipped,
	}
	if resp.Result == nil {
		resp.Result = []core.PrintJob{}
	}
	c.JSON(http.StatusOK, resp)
}

// Acknowledge marks the given items printed. An empty id set is a valid
// no-op; ids already printed count toward requested but not affected.
func (h *PrintQueueHandler) Acknowledge(c *gin.Context) {
	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	affected, err := h.dispatcher.Acknowledge(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge items"})
		return
	}

	c.JSON(http.StatusOK, AcknowledgeResponse{
		Status:    "ok",
		Affected:  affected,
		Requested: len(req.IDs),
	})
}

// Release returns every unprinted item of a claim to the pending pool.
// Callers use it after a failed physical send instead of waiting out
// the lease.
func (h *PrintQueueHandler) Release(c *gin.Context) {
	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.dispatcher.Release(c.Request.Context(), req.ClaimID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to release claim"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// QRPreview renders the same QR a ticket carries, for rendering sinks
// that cannot generate codes themselves.
func (h *PrintQueueHandler) QRPreview(c *gin.Context) {
	idStr := c.Param("id")
	if _, err := strconv.ParseInt(idStr, 10, 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	png, err := qrcode.Encode(idStr, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate qr code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *PrintQueueHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/print-queue", h.ListQueue)
	r.DELETE("/print-queue", h.Acknowledge)
	r.POST("/print-queue/release", h.Release)
	r.GET("/print-queue/:id/qr", h.QRPreview)
}

type HealthHandler struct {
	queue *db.QueueOperations
}

func NewHealthHandler(queue *db.QueueOperations) *HealthHandler {
	return &HealthHandler{queue: queue}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	pending, err := h.queue.CountPending(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "queue depth unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"pending": pending,
	})
}

func (h *HealthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
}
