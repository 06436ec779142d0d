package hub

import (
	"sync"
	"time"

	"github.com/antonmedv/expr/vm"
	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/filter"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/metrics"
	"github.com/hivecraft/portal/types"
	"github.com/robfig/cron/v3"
)

const reapSchedule = "@every 10s"

// connInfo is the registry entry of an authenticated connection. A
// connection without one is registered but unauthenticated and cannot join
// rooms or appear in typing state.
type connInfo struct {
	userId   string
	role     string
	name     string
	projects map[string]struct{}
}

type typingEntry struct {
	userName string
	since    time.Time
}

// Hub holds the connection registry, the room membership tables and the
// typing state. All state lives in process memory: scaling beyond one
// instance would need a shared pub/sub backplane, which is out of scope.
type Hub struct {
	cfg *config.Config

	// registered connections, value is nil until authenticate
	clients map[*Client]*connInfo

	// room key (user:<id> / project:<id>) -> members
	rooms map[string]map[*Client]struct{}

	// projectId -> userId -> typing entry
	typing map[string]map[string]typingEntry

	quit chan struct{}

	// guards clients, rooms and typing
	sync.RWMutex
}

func NewHub(cfg *config.Config) *Hub {
	return &Hub{
		cfg:     cfg,
		clients: make(map[*Client]*connInfo),
		rooms:   make(map[string]map[*Client]struct{}),
		typing:  make(map[string]map[string]typingEntry),
		quit:    make(chan struct{}),
	}
}

// Run starts the typing reaper and blocks until Close is called.
func (h *Hub) Run() {
	cronRunner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := cronRunner.AddFunc(reapSchedule, h.reapTyping)
	if err != nil {
		globals.AppLogger.Error("could not schedule typing reaper", "error", err)
		return
	}
	cronRunner.Start()
	defer cronRunner.Stop()
	<-h.quit
}

func (h *Hub) Close() {
	close(h.quit)
}

// Register adds a freshly upgraded connection to the registry,
// unauthenticated.
func (h *Hub) Register(c *Client) {
	h.Lock()
	h.clients[c] = nil
	h.Unlock()
	metrics.ActiveConnections.Inc()
}

// Authenticate binds an identity to a connection and joins its personal
// room plus any initial project rooms. Calling it again overwrites the
// previous registration, last write wins.
func (h *Hub) Authenticate(c *Client, userId, role, name string, projectIds []string) {
	h.Lock()
	if _, ok := h.clients[c]; !ok {
		h.Unlock()
		return
	}
	if prev := h.clients[c]; prev != nil {
		h.removeFromRoomsLocked(c, prev)
	}
	info := &connInfo{
		userId:   userId,
		role:     role,
		name:     name,
		projects: make(map[string]struct{}),
	}
	h.clients[c] = info
	h.addToRoomLocked(c, types.UserRoom(userId))
	for _, projectId := range projectIds {
		info.projects[projectId] = struct{}{}
		h.addToRoomLocked(c, types.ProjectRoom(projectId))
	}
	h.Unlock()
	globals.AppLogger.Debug("connection authenticated", "conn", c.id, "user", userId, "role", role)
}

// Forget removes a connection from the registry and from all rooms, and
// clears any typing entries its user left behind. Called on disconnect, it
// is a no-op for connections that never authenticated.
func (h *Hub) Forget(c *Client) {
	h.Lock()
	info, ok := h.clients[c]
	if !ok {
		h.Unlock()
		return
	}
	delete(h.clients, c)
	stopped := make([]*types.Event, 0)
	if info != nil {
		h.removeFromRoomsLocked(c, info)
		for projectId := range info.projects {
			if h.clearTypingLocked(projectId, info.userId) {
				stopped = append(stopped, types.NewStoppedTypingEvent(projectId, info.userId))
			}
		}
	}
	close(c.Send)
	h.Unlock()
	metrics.ActiveConnections.Dec()
	for _, event := range stopped {
		h.Publish(event, nil)
	}
}

// Join adds an authenticated connection to a project room. Idempotent, a
// no-op for unauthenticated connections.
func (h *Hub) Join(c *Client, projectId string) {
	if projectId == "" {
		return
	}
	h.Lock()
	info := h.clients[c]
	if info == nil {
		h.Unlock()
		return
	}
	info.projects[projectId] = struct{}{}
	h.addToRoomLocked(c, types.ProjectRoom(projectId))
	h.Unlock()
	globals.AppLogger.Debug("joined project room", "user", info.userId, "project", projectId)
}

// Leave removes a connection from a project room. Idempotent.
func (h *Hub) Leave(c *Client, projectId string) {
	h.Lock()
	info := h.clients[c]
	if info == nil {
		h.Unlock()
		return
	}
	delete(info.projects, projectId)
	h.removeFromRoomLocked(c, types.ProjectRoom(projectId))
	h.Unlock()
}

// StartTyping records a typing entry for the connection's user and informs
// the other members of the project room. Requires authentication and room
// membership.
func (h *Hub) StartTyping(c *Client, projectId, userName string) {
	h.Lock()
	info := h.clients[c]
	if info == nil {
		h.Unlock()
		return
	}
	if _, member := info.projects[projectId]; !member {
		h.Unlock()
		return
	}
	if _, ok := h.typing[projectId]; !ok {
		h.typing[projectId] = make(map[string]typingEntry)
	}
	h.typing[projectId][info.userId] = typingEntry{userName: userName, since: time.Now()}
	userId := info.userId
	h.Unlock()
	h.Publish(types.NewTypingEvent(projectId, userId, userName), c)
}

// StopTyping clears the typing entry of the connection's user and informs
// the other members.
func (h *Hub) StopTyping(c *Client, projectId string) {
	h.Lock()
	info := h.clients[c]
	if info == nil {
		h.Unlock()
		return
	}
	cleared := h.clearTypingLocked(projectId, info.userId)
	userId := info.userId
	h.Unlock()
	if cleared {
		h.Publish(types.NewStoppedTypingEvent(projectId, userId), c)
	}
}

// TypingUsers returns a snapshot of who is currently typing in a project.
func (h *Hub) TypingUsers(projectId string) map[string]string {
	h.RLock()
	defer h.RUnlock()
	users := make(map[string]string, len(h.typing[projectId]))
	for userId, entry := range h.typing[projectId] {
		users[userId] = entry.userName
	}
	return users
}

// Publish delivers an event to every member of its room, excluding the
// originating connection for peer notifications (exclude is nil for
// server-originated dispatch). The recipient filter, if any, is compiled
// once per publish.
func (h *Hub) Publish(event *types.Event, exclude *Client) {
	raw, err := event.Wire()
	if err != nil {
		globals.AppLogger.Error("could not marshal event", "event", event.Name, "error", err)
		return
	}
	prog, err := compileFilter(event.Filter)
	if err != nil {
		globals.AppLogger.Error("could not compile recipient filter", "filter", event.Filter, "error", err)
		return
	}
	h.RLock()
	for c := range h.rooms[event.Room] {
		if c == exclude {
			continue
		}
		info := h.clients[c]
		if info == nil {
			continue
		}
		if !filter.Run(prog, filterEnv(info, event.Name)) {
			continue
		}
		select {
		case c.Send <- raw:
		default:
			// slow consumer, drop rather than block the publisher
			metrics.EventsDropped.Inc()
		}
	}
	h.RUnlock()
	metrics.EventsDispatched.WithLabelValues(event.Name).Inc()
}

// NoClients returns the number of registered connections.
func (h *Hub) NoClients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

func (h *Hub) addToRoomLocked(c *Client, roomKey string) {
	if _, ok := h.rooms[roomKey]; !ok {
		h.rooms[roomKey] = make(map[*Client]struct{})
	}
	h.rooms[roomKey][c] = struct{}{}
}

func (h *Hub) removeFromRoomLocked(c *Client, roomKey string) {
	if members, ok := h.rooms[roomKey]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomKey)
		}
	}
}

func (h *Hub) removeFromRoomsLocked(c *Client, info *connInfo) {
	h.removeFromRoomLocked(c, types.UserRoom(info.userId))
	for projectId := range info.projects {
		h.removeFromRoomLocked(c, types.ProjectRoom(projectId))
	}
}

// clearTypingLocked removes a typing entry. Entries are keyed per user, so
// a second connection of the same user clears the first one's entry; the
// reaper covers whatever races remain.
func (h *Hub) clearTypingLocked(projectId, userId string) bool {
	entries, ok := h.typing[projectId]
	if !ok {
		return false
	}
	if _, ok := entries[userId]; !ok {
		return false
	}
	delete(entries, userId)
	if len(entries) == 0 {
		delete(h.typing, projectId)
	}
	return true
}

// reapTyping expires typing entries older than the configured TTL. A client
// that disconnects uncleanly never sends stop-typing, without the reaper
// its indicator would stay on forever.
func (h *Hub) reapTyping() {
	ttl := h.cfg.PresenceConfig.TypingTTL()
	cutoff := time.Now().Add(-ttl)
	stopped := make([]*types.Event, 0)
	h.Lock()
	for projectId, entries := range h.typing {
		for userId, entry := range entries {
			if entry.since.Before(cutoff) {
				delete(entries, userId)
				stopped = append(stopped, types.NewStoppedTypingEvent(projectId, userId))
			}
		}
		if len(entries) == 0 {
			delete(h.typing, projectId)
		}
	}
	h.Unlock()
	for _, event := range stopped {
		h.Publish(event, nil)
	}
}

func filterEnv(info *connInfo, eventName string) filter.Env {
	projectIds := make([]string, 0, len(info.projects))
	for projectId := range info.projects {
		projectIds = append(projectIds, projectId)
	}
	return filter.Env{
		UserId:     info.userId,
		Role:       info.role,
		IsStaff:    types.IsStaffRole(info.role),
		ProjectIds: projectIds,
		Event:      eventName,
	}
}

func compileFilter(filterExpr string) (*vm.Program, error) {
	if filterExpr == "" {
		return nil, nil
	}
	return filter.Compile(filterExpr)
}
