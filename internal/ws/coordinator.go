package ws

import (
	"sync"

	"messaging-service/internal/models"
)

// Presence states reported by StatusOf.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// RoomIDFor maps a participant to the room that carries their conversations.
// Rooms are identified by a participant's user id; keeping the mapping
// explicit leaves space for multi-party rooms later.
func RoomIDFor(userID int) int { return userID }

// Coordinator owns the presence registry and the room membership table. All
// connection handlers share one Coordinator passed by reference; there are no
// package-level registries. Both maps are guarded by a single mutex so a
// disconnect removes a client from presence and rooms in one atomic step.
type Coordinator struct {
	mu       sync.RWMutex
	presence map[int]*Client
	rooms    map[int]map[*Client]struct{}
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		presence: make(map[int]*Client),
		rooms:    make(map[int]map[*Client]struct{}),
	}
}

// Register records the client as the current connection for userID and
// announces the online transition to every registered client. A later
// registration for the same user replaces the earlier one; the replaced
// connection is not closed here, that is the transport's job.
func (co *Coordinator) Register(userID int, client *Client) {
	co.mu.Lock()
	co.presence[userID] = client
	co.mu.Unlock()

	co.Broadcast(models.NewEnvelope(models.EventUserStatus, models.StatusPayload{
		UserID: userID,
		Status: StatusOnline,
	}))
}

// Unregister removes the client from presence and from every room it joined,
// then announces the offline transition. When the client was never registered
// the call is a no-op and nothing is broadcast; room membership is still
// cleared so an unregistered-but-joined socket cannot linger. Returns the
// user id that was cleared, if any.
func (co *Coordinator) Unregister(client *Client) (int, bool) {
	co.mu.Lock()
	userID, registered := 0, false
	for id, c := range co.presence {
		if c == client {
			userID, registered = id, true
			delete(co.presence, id)
			break
		}
	}
	co.leaveLocked(client)
	co.mu.Unlock()

	if !registered {
		return 0, false
	}
	co.Broadcast(models.NewEnvelope(models.EventUserStatus, models.StatusPayload{
		UserID: userID,
		Status: StatusOffline,
	}))
	return userID, true
}

// Join adds the client to a room. Joining the same room twice is a no-op.
func (co *Coordinator) Join(roomID int, client *Client) {
	co.mu.Lock()
	defer co.mu.Unlock()
	if _, ok := co.rooms[roomID]; !ok {
		co.rooms[roomID] = make(map[*Client]struct{})
	}
	co.rooms[roomID][client] = struct{}{}
}

// Leave removes the client from every room it belongs to.
func (co *Coordinator) Leave(client *Client) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.leaveLocked(client)
}

func (co *Coordinator) leaveLocked(client *Client) {
	for roomID, members := range co.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(co.rooms, roomID)
		}
	}
}

// Members returns a snapshot of the room's current members. An empty room is
// not an error; messages sent there are simply not delivered live.
func (co *Coordinator) Members(roomID int) []*Client {
	co.mu.RLock()
	defer co.mu.RUnlock()
	members := make([]*Client, 0, len(co.rooms[roomID]))
	for client := range co.rooms[roomID] {
		members = append(members, client)
	}
	return members
}

// StatusOf reports the presence of a user. Unknown ids are offline, never an
// error.
func (co *Coordinator) StatusOf(userID int) string {
	co.mu.RLock()
	defer co.mu.RUnlock()
	if _, ok := co.presence[userID]; ok {
		return StatusOnline
	}
	return StatusOffline
}

// Broadcast sends an envelope to every registered client. A client whose
// socket rejects the write is closed; its read loop then unwinds and runs the
// normal disconnect cleanup.
func (co *Coordinator) Broadcast(env models.Envelope) {
	co.mu.RLock()
	clients := make([]*Client, 0, len(co.presence))
	for _, client := range co.presence {
		clients = append(clients, client)
	}
	co.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(env); err != nil {
			client.Close()
		}
	}
}
