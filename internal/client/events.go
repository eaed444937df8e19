package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"

	"cubetimer/internal/record"
)

// Subscribe streams record events from the server. The channel closes when
// ctx ends or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan record.Event, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/events"

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial events: %w", err)
	}

	events := make(chan record.Event)
	go func() {
		defer close(events)
		defer conn.Close(websocket.StatusNormalClosure, "")

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var ev record.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
