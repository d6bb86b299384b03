package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	realtimeProtocolVersion  = "1.0.0"
)

// Change event types delivered by postgres_changes.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
	ChangeAll    = "*"
)

// ChangeEvent is one row change pushed by Realtime.
type ChangeEvent struct {
	Type            string
	Schema          string
	Table           string
	CommitTimestamp string
	Record          json.RawMessage
	OldRecord       json.RawMessage
}

// ChangeHandler receives change events on the connection's read goroutine
// and must not block.
type ChangeHandler func(event ChangeEvent)

// PostgresChangesConfig selects the row changes a channel receives.
type PostgresChangesConfig struct {
	Event  string `json:"event"` // INSERT, UPDATE, DELETE, *
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"` // e.g. "user_id=eq.<uuid>"
}

// RealtimeClient is a single Phoenix websocket to Supabase Realtime.
type RealtimeClient struct {
	mu        sync.Mutex
	url       string
	conn      *websocket.Conn
	channels  map[string]*Channel
	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	ref       int
	heartbeat time.Duration
}

// Channel is one joined topic.
type Channel struct {
	client      *RealtimeClient
	topic       string
	changes     []PostgresChangesConfig
	accessToken string
	handler     ChangeHandler
	joined      bool
	joinRef     string
}

// NewRealtimeClient derives the websocket endpoint from the REST client.
func (c *Client) NewRealtimeClient() (*RealtimeClient, error) {
	return NewRealtimeClient(c.baseURL, c.apiKey, 0)
}

// NewRealtimeClient creates a realtime client. A zero heartbeat uses 30s.
func NewRealtimeClient(supabaseURL, apiKey string, heartbeat time.Duration) (*RealtimeClient, error) {
	u, err := url.Parse(supabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/realtime/v1/websocket"
	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("vsn", realtimeProtocolVersion)
	u.RawQuery = q.Encode()

	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	return &RealtimeClient{
		url:       u.String(),
		channels:  make(map[string]*Channel),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
		heartbeat: heartbeat,
	}, nil
}

// Connect establishes the websocket connection.
func (r *RealtimeClient) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return &NetworkError{Op: "realtime dial", Err: err}
	}
	r.conn = conn

	go r.handleMessages(conn)
	go r.heartbeatLoop()

	return nil
}

// Done is closed once the connection is gone, whether by Disconnect or by
// the server dropping it.
func (r *RealtimeClient) Done() <-chan struct{} {
	return r.closed
}

// Disconnect closes the websocket connection. It is safe to call twice.
func (r *RealtimeClient) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		r.markClosed()
		return nil
	}

	select {
	case <-r.done:
	default:
		close(r.done)
	}

	err := r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	r.conn.Close()
	r.conn = nil
	if err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return nil
}

// SubscribeToPostgresChanges joins realtime:<name> with a postgres_changes
// binding. Names must be unique per connection; callers add a suffix when
// several subscriptions watch the same table.
func (r *RealtimeClient) SubscribeToPostgresChanges(ctx context.Context, name string, cfg PostgresChangesConfig, accessToken string, handler ChangeHandler) (*Channel, error) {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.Event == "" {
		cfg.Event = ChangeAll
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}

	r.mu.Lock()
	topic := "realtime:" + name
	if _, exists := r.channels[topic]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("channel %s already subscribed", topic)
	}
	ch := &Channel{
		client:      r,
		topic:       topic,
		changes:     []PostgresChangesConfig{cfg},
		accessToken: accessToken,
		handler:     handler,
	}
	r.channels[topic] = ch
	r.mu.Unlock()

	if err := ch.join(ctx); err != nil {
		r.mu.Lock()
		delete(r.channels, topic)
		r.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

// Topic returns the channel's Phoenix topic.
func (c *Channel) Topic() string {
	return c.topic
}

func (c *Channel) join(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.client.mu.Lock()
	defer c.client.mu.Unlock()

	if c.joined {
		return nil
	}
	if c.client.conn == nil {
		return fmt.Errorf("realtime not connected")
	}

	ref := c.client.nextRef()
	c.joinRef = ref

	payload := map[string]any{
		"config": map[string]any{
			"postgres_changes": c.changes,
		},
	}
	if c.accessToken != "" {
		payload["access_token"] = c.accessToken
	}

	msg := map[string]any{
		"topic":    c.topic,
		"event":    "phx_join",
		"payload":  payload,
		"ref":      ref,
		"join_ref": ref,
	}
	if err := c.client.conn.WriteJSON(msg); err != nil {
		return &NetworkError{Op: "realtime join", Err: err}
	}

	c.joined = true
	return nil
}

// Unsubscribe leaves the channel.
func (c *Channel) Unsubscribe() error {
	c.client.mu.Lock()
	defer c.client.mu.Unlock()

	delete(c.client.channels, c.topic)
	if !c.joined || c.client.conn == nil {
		c.joined = false
		return nil
	}

	msg := map[string]any{
		"topic":    c.topic,
		"event":    "phx_leave",
		"payload":  map[string]any{},
		"ref":      c.client.nextRef(),
		"join_ref": c.joinRef,
	}
	c.joined = false
	if err := c.client.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send leave: %w", err)
	}
	return nil
}

// nextRef must be called with mu held.
func (r *RealtimeClient) nextRef() string {
	r.ref++
	return strconv.Itoa(r.ref)
}

func (r *RealtimeClient) markClosed() {
	r.closeOnce.Do(func() { close(r.closed) })
}

func (r *RealtimeClient) handleMessages(conn *websocket.Conn) {
	defer r.markClosed()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		r.dispatch(message)
	}
}

func (r *RealtimeClient) dispatch(message []byte) {
	if !gjson.ValidBytes(message) {
		return
	}
	frame := gjson.ParseBytes(message)
	if frame.Get("event").String() != "postgres_changes" {
		return
	}

	topic := frame.Get("topic").String()
	r.mu.Lock()
	ch := r.channels[topic]
	r.mu.Unlock()
	if ch == nil || ch.handler == nil {
		return
	}

	event, ok := parseChangeEvent(frame.Get("payload.data"))
	if !ok || !ch.wants(event.Type) {
		return
	}
	ch.handler(event)
}

func (c *Channel) wants(eventType string) bool {
	for _, cfg := range c.changes {
		if cfg.Event == ChangeAll || cfg.Event == eventType {
			return true
		}
	}
	return false
}

func parseChangeEvent(data gjson.Result) (ChangeEvent, bool) {
	if !data.Exists() {
		return ChangeEvent{}, false
	}
	event := ChangeEvent{
		Type:            data.Get("type").String(),
		Schema:          data.Get("schema").String(),
		Table:           data.Get("table").String(),
		CommitTimestamp: data.Get("commit_timestamp").String(),
	}
	if event.Type == "" {
		// Older servers use eventType.
		event.Type = data.Get("eventType").String()
	}
	if rec := data.Get("record"); rec.Exists() {
		event.Record = json.RawMessage(rec.Raw)
	}
	if old := data.Get("old_record"); old.Exists() {
		event.OldRecord = json.RawMessage(old.Raw)
	}
	return event, event.Type != ""
}

func (r *RealtimeClient) heartbeatLoop() {
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-r.closed:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				msg := map[string]any{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]any{},
					"ref":     r.nextRef(),
				}
				_ = r.conn.WriteJSON(msg)
			}
			r.mu.Unlock()
		}
	}
}
