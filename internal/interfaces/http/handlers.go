package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crmforge/approval-engine/internal/application/service"
	"github.com/crmforge/approval-engine/internal/domain/entity"
)

// Caller identity travels in headers; authentication proper is terminated
// upstream (gateway) and this service trusts the forwarded identity.
const (
	headerTenantID   = "X-Tenant-ID"
	headerActorID    = "X-Actor-ID"
	headerActorAdmin = "X-Actor-Admin"
)

const (
	ctxTenantID   = "tenant_id"
	ctxActorID    = "actor_id"
	ctxActorAdmin = "actor_admin"
)

// identityMiddleware extracts the caller identity. Tenant is mandatory for
// every API route; actor requirements vary per handler.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(headerTenantID)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "missing " + headerTenantID + " header",
			})
			return
		}
		c.Set(ctxTenantID, tenantID)
		c.Set(ctxActorID, c.GetHeader(headerActorID))
		c.Set(ctxActorAdmin, c.GetHeader(headerActorAdmin) == "true")
		c.Next()
	}
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine service.ApprovalEngine
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine service.ApprovalEngine, logger Logger) *Handlers {
	return &Handlers{
		engine: engine,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitRequest is the body of POST /api/approvals
type SubmitRequest struct {
	TargetObjectType    string `json:"target_object_type" binding:"required"`
	TargetRecordID      string `json:"target_record_id" binding:"required"`
	ProcessDefinitionID int64  `json:"process_definition_id" binding:"required"`
	Comment             string `json:"comment"`
}

// DecideRequest is the body of POST /api/work-items/:id/decide
type DecideRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
}

// ReassignRequest is the body of POST /api/work-items/:id/reassign
type ReassignRequest struct {
	NewApproverID string `json:"new_approver_id" binding:"required"`
	Comment       string `json:"comment"`
}

// RecallRequest is the body of POST /api/approvals/:id/recall
type RecallRequest struct {
	Comment string `json:"comment"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Submit handles POST /api/approvals
func (h *Handlers) Submit(c *gin.Context) {
	actorID, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	view, err := h.engine.Submit(c.Request.Context(), service.SubmitRequest{
		TenantID:            c.GetString(ctxTenantID),
		SubmitterID:         actorID,
		TargetObjectType:    req.TargetObjectType,
		TargetRecordID:      req.TargetRecordID,
		ProcessDefinitionID: req.ProcessDefinitionID,
		Comment:             req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: view})
}

// ListInstances handles GET /api/approvals
func (h *Handlers) ListInstances(c *gin.Context) {
	filter := entity.InstanceFilter{
		Status:           c.Query("status"),
		TargetObjectType: c.Query("target_object_type"),
		TargetRecordID:   c.Query("target_record_id"),
		SubmittedBy:      c.Query("submitted_by"),
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.engine.ListInstances(c.Request.Context(), c.GetString(ctxTenantID), filter, limit, c.Query("cursor"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: page})
}

// GetInstance handles GET /api/approvals/:id
func (h *Handlers) GetInstance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.engine.GetInstance(c.Request.Context(), c.GetString(ctxTenantID), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Recall handles POST /api/approvals/:id/recall
func (h *Handlers) Recall(c *gin.Context) {
	actorID, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req RecallRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid request body", err)
			return
		}
	}

	if err := h.engine.Recall(c.Request.Context(), c.GetString(ctxTenantID), actorID, id, req.Comment); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// GetHistory handles GET /api/approvals/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	views, err := h.engine.GetHistory(c.Request.Context(), c.GetString(ctxTenantID), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// ListWorkItems handles GET /api/work-items. It lists the calling approver's
// items; pending-only unless all=true.
func (h *Handlers) ListWorkItems(c *gin.Context) {
	actorID, ok := h.requireActor(c)
	if !ok {
		return
	}

	pendingOnly := c.Query("all") != "true"
	limit, _ := strconv.Atoi(c.Query("limit"))

	page, err := h.engine.ListWorkItems(c.Request.Context(), c.GetString(ctxTenantID), actorID, pendingOnly, limit, c.Query("cursor"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: page})
}

// GetWorkItem handles GET /api/work-items/:id
func (h *Handlers) GetWorkItem(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	view, err := h.engine.GetWorkItem(c.Request.Context(), c.GetString(ctxTenantID), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Decide handles POST /api/work-items/:id/decide
func (h *Handlers) Decide(c *gin.Context) {
	actorID, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	view, err := h.engine.Decide(c.Request.Context(), service.DecideRequest{
		TenantID:   c.GetString(ctxTenantID),
		ActorID:    actorID,
		WorkItemID: id,
		Action:     req.Action,
		Comment:    req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Reassign handles POST /api/work-items/:id/reassign
func (h *Handlers) Reassign(c *gin.Context) {
	actorID, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	view, err := h.engine.Reassign(c.Request.Context(), service.ReassignRequest{
		TenantID:      c.GetString(ctxTenantID),
		ActorID:       actorID,
		ActorIsAdmin:  c.GetBool(ctxActorAdmin),
		WorkItemID:    id,
		NewApproverID: req.NewApproverID,
		Comment:       req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

func (h *Handlers) requireActor(c *gin.Context) (string, bool) {
	actorID := c.GetString(ctxActorID)
	if actorID == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "missing " + headerActorID + " header",
		})
		return "", false
	}
	return actorID, true
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid id", err)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error("Bad request", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// respondError maps business errors to HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, entity.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, entity.ErrAlreadyPending),
		errors.Is(err, entity.ErrNotPending),
		errors.Is(err, entity.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, entity.ErrInvalidProcess),
		errors.Is(err, entity.ErrInvalidCursor),
		errors.Is(err, entity.ErrInvalidAction):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrNotAssignedApprover),
		errors.Is(err, entity.ErrNotSubmitter),
		errors.Is(err, entity.ErrNotAuthorized):
		status, message = http.StatusForbidden, err.Error()
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, Response{Success: false, Error: message})
}
