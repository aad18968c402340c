package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"

	"raffle/internal/auth"
	"raffle/internal/draw"
	"raffle/internal/drawdates"
	"raffle/internal/ledger"
	"raffle/internal/raffle"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service *raffle.Service
	gate    *auth.Gate
	dates   *drawdates.Source
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *raffle.Service, gate *auth.Gate, dates *drawdates.Source) *HTTPHandler {
	return &HTTPHandler{service: service, gate: gate, dates: dates}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.GET("/winners", h.GetWinners)
		api.DELETE("/winners/:week", h.DeleteWinner)
		api.POST("/draw/:week", h.StartDraw)
		api.POST("/sessions/:id/confirm", h.ConfirmDraw)
		api.POST("/sessions/:id/cancel", h.CancelDraw)
		api.POST("/auth/login", h.Login)

		admin := api.Group("/admin")
		admin.Use(h.AdminOnly())
		{
			admin.GET("/config", h.GetConfig)
			admin.PUT("/config/:week", h.UpdateConfig)
			admin.PUT("/password", h.ChangePassword)
		}
	}

	router.GET("/events", h.StreamEvents)
}

// CORSMiddleware lets the hosted dashboard call the API from its own origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// GetState returns the full dashboard snapshot.
func (h *HTTPHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.State())
}

// GetWinners returns the confirmed winner list.
func (h *HTTPHandler) GetWinners(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Winners())
}

// StartDraw begins the animated draw for a week.
func (h *HTTPHandler) StartDraw(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week"})
		return
	}

	session, err := h.service.StartDraw(week)
	if err != nil {
		switch {
		case errors.Is(err, raffle.ErrDrawInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, raffle.ErrDrawNotAllowed), errors.Is(err, draw.ErrEmptyPool):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":     session.ID(),
		"week":        session.Week(),
		"secondsLeft": session.SecondsLeft(),
	})
}

// ConfirmDraw commits a decided winner into the ledger.
func (h *HTTPHandler) ConfirmDraw(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	winner, err := h.service.ConfirmDraw(id)
	if err != nil {
		switch {
		case errors.Is(err, raffle.ErrNoSession):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, draw.ErrNotDecided), errors.Is(err, ledger.ErrDuplicateWinner):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, winner)
}

// CancelDraw abandons a session without recording a winner.
func (h *HTTPHandler) CancelDraw(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	h.service.CancelDraw(id)
	c.Status(http.StatusNoContent)
}

// DeleteWinner removes a confirmed winner. The admin password travels in the
// request body; a wrong one is retryable.
func (h *HTTPHandler) DeleteWinner(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week"})
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := h.service.DeleteWinner(week, payload.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrBadPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password. Please try again."})
		case errors.Is(err, ledger.ErrNoWinner):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Login checks the admin password and returns a bearer token.
func (h *HTTPHandler) Login(c *gin.Context) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	token, err := h.gate.Login(payload.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// AdminOnly guards the configuration routes with the login token.
func (h *HTTPHandler) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix || !h.gate.Validate(header[len(prefix):]) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}
		c.Next()
	}
}

// GetConfig returns the remote draw-date table for the admin panel. When the
// remote side is missing or down the response is a notice, not a failure of
// the page.
func (h *HTTPHandler) GetConfig(c *gin.Context) {
	configs, err := h.dates.Configs()
	if err != nil {
		if errors.Is(err, drawdates.ErrUnavailable) {
			c.JSON(http.StatusOK, gin.H{"configs": nil, "notice": "Draw-date service not configured; fallback dates apply."})
			return
		}
		logger.Warningf("Admin config fetch failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"configs": nil, "notice": "Draw-date service unreachable; fallback dates apply."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// UpdateConfig writes a new draw date for one week.
func (h *HTTPHandler) UpdateConfig(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week"})
		return
	}

	var payload struct {
		DrawDate time.Time `json:"drawDate"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := h.dates.Update(week, payload.DrawDate); err != nil {
		if errors.Is(err, drawdates.ErrUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Warningf("Admin config update failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save draw date"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": week})
}

// ChangePassword rotates the admin password.
func (h *HTTPHandler) ChangePassword(c *gin.Context) {
	var payload struct {
		Current string `json:"current"`
		Next    string `json:"next"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if err := h.gate.SetPassword(payload.Current, payload.Next); err != nil {
		if errors.Is(err, auth.ErrBadPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password. Please try again."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamEvents pushes draw and state events to the dashboard over SSE.
func (h *HTTPHandler) StreamEvents(c *gin.Context) {
	client := h.service.RegisterClient()
	defer h.service.UnregisterClient(client)

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-client.Chan():
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
