package server

import (
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cubetimer/internal/metrics"
	"cubetimer/internal/record"
)

const subscriberBuffer = 16

// Hub fans record events out to live subscribers. Slow subscribers miss
// events rather than blocking publishers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan record.Event]struct{}
	logger      zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan record.Event]struct{}),
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a subscriber. The returned function unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan record.Event, func()) {
	ch := make(chan record.Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
			metrics.EventSubscribers.Dec()
		})
	}
}

func (h *Hub) Publish(ev record.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			metrics.EventsDropped.Inc()
			h.logger.Warn().Str("type", string(ev.Type)).Msg("Dropping event for slow subscriber")
		}
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Events streams hub events to a websocket client until either side closes.
func (h *Hub) Events(originPatterns []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to accept websocket")
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		events, unsubscribe := h.Subscribe()
		defer unsubscribe()

		// clients never send; CloseRead cancels ctx once the peer goes away
		ctx := conn.CloseRead(c.Request.Context())

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					h.logger.Error().Err(err).Msg("Failed to encode event")
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					h.logger.Debug().Err(err).Msg("Event subscriber went away")
					return
				}
			}
		}
	}
}
