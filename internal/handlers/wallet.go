package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/services"
)

type WalletHandler struct {
	wallets *services.WalletBook
}

func NewWalletHandler(wallets *services.WalletBook) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	principal := middleware.Principal(c)

	wallet, err := h.wallets.Wallet(c.Request.Context(), principal)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"wallet": gin.H{
			"principal": wallet.Principal,
			"balance":   wallet.Balance,
		},
	})
}

func (h *WalletHandler) GetTransfers(c *gin.Context) {
	principal := middleware.Principal(c)

	transfers, err := h.wallets.Transfers(c.Request.Context(), principal, 50)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"transfers": transfers,
		"count":     len(transfers),
	})
}

// Credit is the admin faucet for development and testing.
func (h *WalletHandler) Credit(c *gin.Context) {
	var req models.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	caller := middleware.Principal(c)
	balance, err := h.wallets.Credit(c.Request.Context(), caller, req.Principal, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"principal": req.Principal,
		"balance":   balance,
	})
}
