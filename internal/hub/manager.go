// Package hub delivers committed notifications to connected users in real time.
package hub

import (
	"context"
	"log"
	"sync"

	"ecoplaint/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Subscriber opens the Redis subscription notifications arrive on.
type Subscriber interface {
	SubscribeNotifications(ctx context.Context) *redis.PubSub
}

// ManagerService owns the set of connected clients. Only Run mutates it.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[uint]map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client
	NotifyCh     chan models.Notification

	Subscriber Subscriber

	done chan struct{}
}

// NewManagerService creates the hub. sub may be nil, in which case only
// notifications pushed on NotifyCh are delivered.
func NewManagerService(sub Subscriber) *ManagerService {
	return &ManagerService{
		clients:      make(map[uint]map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		NotifyCh:     make(chan models.Notification, 64),
		Subscriber:   sub,
		done:         make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done.
func (m *ManagerService) Run(ctx context.Context) {
	if m.Subscriber != nil {
		m.StartPubSubListener(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			close(m.done)
			return

		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client)

		case n := <-m.NotifyCh:
			m.deliver(n)
		}
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Connected reports how many connections userID currently holds.
func (m *ManagerService) Connected(userID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

func (m *ManagerService) register(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.clients[client.GetUserID()]
	if !ok {
		set = make(map[Client]struct{})
		m.clients[client.GetUserID()] = set
	}
	set[client] = struct{}{}
	log.Printf("INFO: Client registered for user %d (%d connections)", client.GetUserID(), len(set))
}

func (m *ManagerService) unregister(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(client)
}

// remove must be called with mu held. A client already dropped is ignored,
// so Close runs once per client.
func (m *ManagerService) remove(client Client) {
	set, ok := m.clients[client.GetUserID()]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(m.clients, client.GetUserID())
	}
	client.Close()
}

// deliver sends n to every connection of its recipient. Notifications
// without a recipient belong to anonymous complaints and go nowhere.
func (m *ManagerService) deliver(n models.Notification) {
	if n.RecipientID == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for client := range m.clients[*n.RecipientID] {
		select {
		case client.GetSendChannel() <- n:
		default:
			log.Printf("ERROR: Client of user %d is too slow, dropping connection", *n.RecipientID)
			m.remove(client)
		}
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, set := range m.clients {
		for client := range set {
			m.remove(client)
		}
	}
}
