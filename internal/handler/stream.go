package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
)

const streamWriteTimeout = 10 * time.Second

// streamMessage is one websocket frame. View is the rebuilt view model after
// the event, absent when the slot is empty.
type streamMessage struct {
	Type       portfolio.EventType `json:"type"`
	Generation uint64              `json:"generation"`
	Address    string              `json:"address,omitempty"`
	Endpoint   portfolio.Endpoint  `json:"endpoint,omitempty"`
	Message    string              `json:"message,omitempty"`
	View       *analytics.View     `json:"view,omitempty"`
}

// @Summary Live updates
// @Description Websocket. The first frame describes the current view; later frames follow every lookup event.
// @Tags portfolio
// @Router /api/current/stream [get]
func (h *PortfolioHandler) stream(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger().Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	events, cancel := h.Session.Subscribe(64)
	defer cancel()
	// The client never sends; CloseRead handles pings and notices the peer leaving.
	ctx := conn.CloseRead(c.Request.Context())

	first := streamMessage{Type: portfolio.EventReset, Generation: h.Session.Generation()}
	if snap, ok := h.Session.Current(); ok {
		first = h.message(portfolio.Event{Type: portfolio.EventSnapshotUpdated, Generation: snap.Generation, Address: snap.Address, Snapshot: &snap})
	}
	if err := writeFrame(ctx, conn, first); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := writeFrame(ctx, conn, h.message(ev)); err != nil {
				h.logger().Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *PortfolioHandler) message(ev portfolio.Event) streamMessage {
	msg := streamMessage{
		Type:       ev.Type,
		Generation: ev.Generation,
		Address:    ev.Address,
		Endpoint:   ev.Endpoint,
		Message:    ev.Message,
	}
	if ev.Snapshot != nil {
		view := analytics.BuildView(*ev.Snapshot, h.Options)
		msg.View = &view
	}
	return msg
}

func writeFrame(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
