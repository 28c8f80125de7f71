package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/rustyeddy/tradedash/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
	readLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the page is served from this process
	},
}

// Visibility is the part of the controller the hub drives.
type Visibility interface {
	Hide()
	Show()
}

// visibilityMsg is what a page sends when its tab is shown or hidden.
type visibilityMsg struct {
	Visible bool `json:"visible"`
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	visible bool
}

// Hub pushes every write of a Memory sink to the connected pages and turns
// their visibility into Hide/Show calls: the controller pauses when no page
// is visible and refreshes at once when the first one becomes visible.
type Hub struct {
	mem       *view.Memory
	ctl       Visibility
	onViewers func(int)

	// vmu serializes visibility transitions, including the controller call.
	vmu sync.Mutex

	mu      sync.Mutex
	clients map[*client]struct{}
	visible int
}

// NewHub subscribes to mem. onViewers may be nil.
func NewHub(mem *view.Memory, ctl Visibility, onViewers func(int)) *Hub {
	if onViewers == nil {
		onViewers = func(int) {}
	}
	h := &Hub{
		mem:       mem,
		ctl:       ctl,
		onViewers: onViewers,
		clients:   make(map[*client]struct{}),
	}
	mem.OnUpdate(h.broadcast)
	return h
}

// Viewers is the number of connected pages that are visible.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// Clients is the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(u view.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		log.Error().Err(err).Str("slot", u.Slot).Msg("encode update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Msg("dropping slow dashboard client")
			h.removeLocked(c)
		}
	}
}

// register adds c and queues the current state for it, so no update can
// slip in between.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, u := range h.mem.Replay() {
		data, err := json.Marshal(u)
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) setVisible(c *client, v bool) {
	h.vmu.Lock()
	defer h.vmu.Unlock()

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok && v {
		h.mu.Unlock()
		return
	}
	if c.visible == v {
		h.mu.Unlock()
		return
	}
	c.visible = v
	before := h.visible
	if v {
		h.visible++
	} else {
		h.visible--
	}
	after := h.visible
	h.mu.Unlock()

	h.onViewers(after)
	switch {
	case before == 0 && after > 0:
		log.Info().Msg("dashboard visible, resuming refresh")
		h.ctl.Show()
	case before > 0 && after == 0:
		log.Info().Msg("no visible dashboard, pausing refresh")
		h.ctl.Hide()
	}
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Serve upgrades the request and runs the connection until it closes. A new
// page counts as visible until it says otherwise.
func (h *Hub) Serve(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writePump(c)

	h.setVisible(c, true)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		h.setVisible(c, false)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		var msg visibilityMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Msg("ignoring websocket message")
			continue
		}
		h.setVisible(c, msg.Visible)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
