package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/services"
)

type OracleHandler struct {
	oracle *services.Oracle
}

func NewOracleHandler(oracle *services.Oracle) *OracleHandler {
	return &OracleHandler{oracle: oracle}
}

// GetRequest returns a request in either state; the seed stays hidden
// until fulfillment, at which point the record is the public audit
// trail.
func (h *OracleHandler) GetRequest(c *gin.Context) {
	req, err := h.oracle.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": req,
	})
}

// GetResult returns only fulfilled entries; pending ids report not
// found per the oracle contract.
func (h *OracleHandler) GetResult(c *gin.Context) {
	req, err := h.oracle.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"request_id":  req.ID,
			"max":         req.Max,
			"server_seed": req.ServerSeed,
			"result":      req.Result,
			"commitment":  req.Commitment,
		},
	})
}

func (h *OracleHandler) Authorize(c *gin.Context) {
	var req models.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	if err := h.oracle.Authorize(c.Request.Context(), caller, req.Principal); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "principal": req.Principal})
}

func (h *OracleHandler) Revoke(c *gin.Context) {
	var req models.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	if err := h.oracle.Revoke(c.Request.Context(), caller, req.Principal); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "principal": req.Principal})
}

func (h *OracleHandler) Commit(c *gin.Context) {
	var req models.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	if err := h.oracle.Commit(c.Request.Context(), caller, req.RequestID, req.SeedHash); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "request_id": req.RequestID})
}

func (h *OracleHandler) Fulfill(c *gin.Context) {
	var req models.FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	fulfilled, err := h.oracle.FulfillRandom(c.Request.Context(), caller, req.RequestID, req.ServerSeed)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"request_id": fulfilled.ID,
			"max":        fulfilled.Max,
			"result":     fulfilled.Result,
		},
	})
}
