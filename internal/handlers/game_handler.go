package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/services"
)

// GameHandler handles game-related HTTP requests
type GameHandler struct {
	gameService      services.GameService
	targetService    services.TargetService
	schedulerService services.SchedulerService
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(gameService services.GameService, targetService services.TargetService, schedulerService services.SchedulerService) *GameHandler {
	return &GameHandler{
		gameService:      gameService,
		targetService:    targetService,
		schedulerService: schedulerService,
	}
}

// ClickRequest is the body of POST /click. Coordinates are pointers so a
// legitimate 0 is distinguishable from a missing field.
type ClickRequest struct {
	X          *int   `json:"x" binding:"required"`
	Y          *int   `json:"y" binding:"required"`
	Identifier string `json:"identifier" binding:"required"`
}

// ResolveClick handles POST /click
func (h *GameHandler) ResolveClick(c *gin.Context) {
	var request ClickRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.gameService.ResolveClick(c.Request.Context(), *request.X, *request.Y, request.Identifier, time.Now())
	if err != nil {
		// Storage detail stays in the server log.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve click"})
		return
	}

	if outcome.Result == models.ClickResultRejected {
		status := http.StatusBadRequest
		if outcome.Reason == models.RejectionAttemptLimit {
			status = http.StatusConflict
		}
		c.JSON(status, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetJackpot handles GET /jackpot
func (h *GameHandler) GetJackpot(c *gin.Context) {
	state, err := h.gameService.CurrentJackpot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve jackpot"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetJackpotHistory handles GET /jackpot/history
func (h *GameHandler) GetJackpotHistory(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit (1-500)"})
		return
	}
	entries, err := h.gameService.JackpotHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve jackpot history"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetTarget handles GET /internal/target. It discloses the hidden coordinate,
// so the route is mounted on the trusted collaborator surface only.
func (h *GameHandler) GetTarget(c *gin.Context) {
	target, err := h.gameService.CurrentTarget(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve target"})
		return
	}
	c.JSON(http.StatusOK, target)
}

// RotateTarget handles POST /internal/target/rotate
func (h *GameHandler) RotateTarget(c *gin.Context) {
	target, err := h.targetService.ForceRotate(c.Request.Context(), models.DayKey(time.Now()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate target"})
		return
	}
	c.JSON(http.StatusOK, target)
}

// RunTick handles POST /internal/tick, letting an external scheduler drive
// the increment cadence instead of the built-in ticker.
func (h *GameHandler) RunTick(c *gin.Context) {
	if err := h.schedulerService.RunIncrementTick(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply increment tick"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Increment tick applied"})
}
