package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/api/metrics"
	"github.com/yokaunit/toolbox/internal/infrastructure/notify"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeDeadline    = 60 * time.Second
)

// ChangeStreamer opens per-user change streams.
type ChangeStreamer interface {
	Stream(userID string) *notify.Subscription
}

// StreamHandler pushes "state changed" signals to the browser over SSE.
// Events carry no payload: clients re-read what they display.
type StreamHandler struct {
	streamer  ChangeStreamer
	heartbeat time.Duration
	log       zerolog.Logger
}

func NewStreamHandler(streamer ChangeStreamer, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{streamer: streamer, heartbeat: defaultHeartbeat, log: log}
}

// Stream handles GET /v1/stream.
//
// @Summary      Change notifications (server-sent events)
// @Tags         stream
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /v1/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if ctx.Err() != nil {
		return nil
	}

	// Subscribe before the headers go out so no change is missed once the
	// client sees the stream open.
	sub := h.streamer.Stream(session.UserID)
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.log.Error().Err(err).Msg("streaming not supported")
		return nil
	}

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	log := h.log.With().Str("user_id", session.UserID).Str("stream_id", sub.ID).Logger()
	log.Debug().Msg("change stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-sub.C:
			if err := h.send(w, rc, "change"); err != nil {
				log.Debug().Err(err).Msg("client disconnected during send")
				return nil
			}
		case <-ticker.C:
			if err := h.send(w, rc, "heartbeat"); err != nil {
				log.Debug().Err(err).Msg("client disconnected during heartbeat")
				return nil
			}
		case <-sub.Done():
			log.Debug().Msg("change stream closed by server")
			return nil
		case <-ctx.Done():
			log.Debug().Msg("change stream closed by client")
			return nil
		}
	}
}

// send writes one payload-free SSE event and flushes it.
func (h *StreamHandler) send(w http.ResponseWriter, rc *http.ResponseController, event string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: {}\n\n", event); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	// Not every ResponseWriter supports deadlines.
	_ = rc.SetWriteDeadline(time.Now().Add(writeDeadline))
	return nil
}
