package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wagerpool-backend/internal/middleware"
	"wagerpool-backend/internal/models"
	"wagerpool-backend/internal/services"
	"wagerpool-backend/internal/store"
)

type GameHandler struct {
	coordinator *services.Coordinator
	store       *store.Store
}

func NewGameHandler(coordinator *services.Coordinator, st *store.Store) *GameHandler {
	return &GameHandler{
		coordinator: coordinator,
		store:       st,
	}
}

func gameView(game *models.Game) gin.H {
	view := gin.H{
		"id":               game.ID,
		"game_type":        game.GameType,
		"player":           game.Player,
		"wager":            game.Wager,
		"house_edge_bps":   game.HouseEdgeBps,
		"multiplier":       float64(game.MultiplierHundredths) / 100,
		"potential_payout": game.PotentialPayout,
		"status":           game.Status,
		"created_at":       game.CreatedAt,
	}

	if game.GameType == models.GameTypeGuess {
		view["range_min"] = game.RangeMin
		view["range_max"] = game.RangeMax
	}
	if game.Prediction != nil {
		view["prediction"] = *game.Prediction
	}
	if game.Status == models.GameStatusResolved || game.Status == models.GameStatusClaimed {
		view["secret"] = game.Secret
		view["won"] = game.Won
		view["payout_due"] = game.PayoutDue
		view["resolved_at"] = game.ResolvedAt
	}

	return view
}

func (h *GameHandler) Open(c *gin.Context) {
	player := middleware.Principal(c)

	var req models.OpenGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	allowed, err := h.store.CheckRateLimit(c.Request.Context(), player, "open", store.DefaultRateLimitOpens, time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many games opened. Please wait."})
		return
	}

	game, err := h.coordinator.OpenGame(c.Request.Context(), player, &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameView(game),
	})
}

func (h *GameHandler) SubmitGuess(c *gin.Context) {
	player := middleware.Principal(c)

	var req models.SubmitGuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	game, err := h.coordinator.SubmitGuess(c.Request.Context(), player, req.GameID, req.Guess)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameView(game),
	})
}

// Resolve is public: once the oracle has fulfilled, anyone may trigger
// the deterministic transition.
func (h *GameHandler) Resolve(c *gin.Context) {
	var req models.ResolveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	game, err := h.coordinator.ResolveGame(c.Request.Context(), req.GameID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameView(game),
	})
}

func (h *GameHandler) Claim(c *gin.Context) {
	player := middleware.Principal(c)

	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	game, err := h.coordinator.Claim(c.Request.Context(), player, req.GameID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameView(game),
		"payout":  game.PayoutDue,
	})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.coordinator.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"game":    gameView(game),
	})
}

func (h *GameHandler) PlayerGames(c *gin.Context) {
	player := middleware.Principal(c)

	games, err := h.coordinator.PlayerGames(c.Request.Context(), player, 50)
	if err != nil {
		fail(c, err)
		return
	}

	var response []gin.H
	for _, game := range games {
		response = append(response, gameView(game))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"games":   response,
		"count":   len(response),
	})
}
