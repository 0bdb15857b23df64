package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hallpass-backend/internal/apperr"
	"hallpass-backend/internal/pass"
)

// CreatePass handles POST /api/passes.
func (h *Handler) CreatePass(c *gin.Context) {
	var req pass.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}

	passID, err := h.passes.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"passId": passID})
}

type actorRequest struct {
	ActorID   string `json:"actorId" binding:"required"`
	ActorName string `json:"actorName"`
}

type checkInRequest struct {
	LocationID string `json:"locationId" binding:"required"`
	ActorID    string `json:"actorId" binding:"required"`
	ActorName  string `json:"actorName"`
}

// CheckInPass handles POST /api/passes/:id/checkin.
func (h *Handler) CheckInPass(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}

	err := h.passes.CheckIn(c.Request.Context(), c.Param("id"), req.LocationID, req.ActorID, req.ActorName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReturnPass handles POST /api/passes/:id/return.
func (h *Handler) ReturnPass(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}

	err := h.passes.Return(c.Request.Context(), c.Param("id"), req.ActorID, req.ActorName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeclareDeparture handles POST /api/passes/:id/departure, the legacy
// two-state flow.
func (h *Handler) DeclareDeparture(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}

	if err := h.passes.DeclareDeparture(c.Request.Context(), c.Param("id"), req.ActorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeclareReturn handles POST /api/passes/:id/declare-return, the legacy
// two-state flow that also closes the pass.
func (h *Handler) DeclareReturn(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}

	if err := h.passes.DeclareReturn(c.Request.Context(), c.Param("id"), req.ActorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPass handles GET /api/passes/:id, returning the pass with its legs.
func (h *Handler) GetPass(c *gin.Context) {
	p, legs, err := h.passes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pass": p, "legs": legs})
}

// GetActivePasses handles GET /api/passes/active.
func (h *Handler) GetActivePasses(c *gin.Context) {
	passes, err := h.store.FindAllActivePasses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, passes)
}
