package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/services"
)

type LedgerHandler struct {
	ledger *services.Ledger
}

func NewLedgerHandler(ledger *services.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// GetPoolState is a public read; safe for indexers and UIs to poll.
func (h *LedgerHandler) GetPoolState(c *gin.Context) {
	state, err := h.ledger.PoolState(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pool":    state,
	})
}

func (h *LedgerHandler) GetReservation(c *gin.Context) {
	reservation, err := h.ledger.Reservation(c.Request.Context(), c.Param("game_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"reservation": reservation,
	})
}

// Fund moves the caller's own assets into the pool.
func (h *LedgerHandler) Fund(c *gin.Context) {
	var req models.FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	from := middleware.Principal(c)
	if err := h.ledger.Fund(c.Request.Context(), from, req.Amount); err != nil {
		fail(c, err)
		return
	}

	state, err := h.ledger.PoolState(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pool":    state,
	})
}

// Reserve, Release and Payout are operator entry points; games normally
// drive these through the coordinator.

func (h *LedgerHandler) Reserve(c *gin.Context) {
	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	if err := h.ledger.Reserve(c.Request.Context(), caller, req.GameID, req.Amount); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "game_id": req.GameID})
}

func (h *LedgerHandler) Release(c *gin.Context) {
	var req models.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	released, err := h.ledger.Release(c.Request.Context(), caller, req.GameID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"game_id":  req.GameID,
		"released": released,
	})
}

func (h *LedgerHandler) Payout(c *gin.Context) {
	var req models.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	if err := h.ledger.Payout(c.Request.Context(), caller, req.GameID, req.To, req.Amount); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game_id": req.GameID,
		"to":      req.To,
		"amount":  req.Amount,
	})
}
