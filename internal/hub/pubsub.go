package hub

import (
	"context"
	"encoding/json"
	"log"

	"ecoplaint/backend/internal/models"
)

// StartPubSubListener forwards notifications published on Redis into NotifyCh.
// The subscription is closed when ctx is done.
func (m *ManagerService) StartPubSubListener(ctx context.Context) {
	pubsub := m.Subscriber.SubscribeNotifications(ctx)

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					log.Printf("ERROR: Failed to decode notification from Redis: %v", err)
					continue
				}

				select {
				case m.NotifyCh <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
