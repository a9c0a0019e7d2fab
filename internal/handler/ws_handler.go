package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/websocket"
)

// WSHandler runs the live candidate stream: a server-clock tick every second
// plus violation intake over the same connection.
type WSHandler struct {
	attemptService   *service.AttemptService
	violationService *service.ViolationService
	upgrader         gorillaws.Upgrader
	log              zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	attemptService *service.AttemptService,
	violationService *service.ViolationService,
	cfg *config.Config,
	log zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		attemptService:   attemptService,
		violationService: violationService,
		upgrader:         buildUpgrader(cfg.AllowedOrigins),
		log:              log.With().Str("component", "ws_handler").Logger(),
	}
}

func buildUpgrader(allowedOrigins []string) gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
}

// AttemptStream godoc
// GET /ws/v1/attempt/:attempt_id
// Pushes an authoritative tick once per second, recomputed from the stored
// started_at on every tick. Accepts ping and violation actions from the
// client until the window elapses or the attempt completes.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), attemptID)
	if err != nil {
		if errors.Is(err, service.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	conn := websocket.Wrap(raw)
	defer conn.Close()

	deadline := state.StartedAt.Add(time.Duration(state.Duration) * time.Minute)
	done := make(chan struct{})

	go h.tickLoop(conn, deadline, done)
	h.readLoop(conn, attemptID)
	close(done)
}

// tickLoop pushes the remaining time once per second until the exam window
// elapses or the read loop ends.
func (h *WSHandler) tickLoop(conn *websocket.Conn, deadline time.Time, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			remaining := int64(deadline.Sub(now).Seconds())
			if remaining <= 0 {
				conn.WriteJSON(websocket.TickPayload{Event: websocket.EventTimeOver})
				conn.Close()
				return
			}
			if err := conn.WriteJSON(websocket.TickPayload{
				Event:            websocket.EventTick,
				RemainingSeconds: remaining,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(conn *websocket.Conn, attemptID uuid.UUID) {
	for {
		var req websocket.RequestPayload
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Action {
		case websocket.ActionPing:
			conn.WriteJSON(websocket.EventPayload{Event: websocket.EventPong})

		case websocket.ActionViolation:
			h.handleViolation(conn, attemptID, &req)

		default:
			conn.WriteError("unknown action")
		}
	}
}

// handleViolation forwards a violation report into the persistence queue.
// Same contract as the REST endpoint: failures are logged, never fatal to
// the stream.
func (h *WSHandler) handleViolation(conn *websocket.Conn, attemptID uuid.UUID, req *websocket.RequestPayload) {
	vt := model.ViolationType(req.Type)
	if !vt.Valid() || req.Count < 1 {
		conn.WriteError("invalid violation payload")
		return
	}

	occurredAt := time.Now()
	if req.Timestamp > 0 {
		occurredAt = time.Unix(req.Timestamp, 0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.violationService.Log(ctx, &model.LogViolationRequest{
		AttemptID: attemptID,
		Type:      vt,
		Count:     req.Count,
		Timestamp: occurredAt,
	})
	if err != nil {
		h.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Violation enqueue failed")
	}

	conn.WriteJSON(websocket.EventPayload{Event: websocket.EventLogged})
}
