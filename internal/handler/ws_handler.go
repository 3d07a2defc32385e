package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/middleware"
	"github.com/abiturprep/abitur-backend/internal/repository"
	"github.com/abiturprep/abitur-backend/internal/service"
	ws "github.com/abiturprep/abitur-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams exam generation status over WebSocket. It is an
// optional push channel next to polling: the worker publishes terminal
// transitions on Redis pub/sub and the handler forwards them.
type WSHandler struct {
	rdb         *redis.Client
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ExamStatusStream godoc
// WS /ws/v1/exams/:hexcode/stream
// Sends the current status immediately, then pushes status events until a
// terminal state is reached.
func (h *WSHandler) ExamStatusStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	hexCode := c.Param("hexcode")
	job, err := h.examService.GetJob(c.Request.Context(), claims.UserID, hexCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// Subscribe before the initial snapshot so a transition racing the
	// upgrade is not lost.
	pubsub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.ExamEventsChannel(hexCode))
	defer pubsub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("hexcode", hexCode).Logger()
	wsLog.Info().Msg("Status stream connected")

	if err := ws.WriteEvent(conn, ws.StatusEvent{HexCode: job.HexCode, Status: job.Status}); err != nil {
		return
	}
	if job.Status.Terminal() {
		return
	}

	// Detect client close; readDone unblocks the forward loop below.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-readDone:
			wsLog.Debug().Msg("Client disconnected")
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var ev ws.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Warn().Err(err).Msg("Invalid status event payload")
				continue
			}
			if err := ws.WriteEvent(conn, ev); err != nil {
				return
			}
			if ev.Status.Terminal() {
				wsLog.Info().Str("status", string(ev.Status)).Msg("Status stream finished")
				return
			}
		}
	}
}
