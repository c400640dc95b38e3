// Package syncclient implements the client side of the notification
// synchronization protocol: optimistic local mutation, server confirmation,
// server-push reconciliation, and rollback by full refetch on any failure.
package syncclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Notification mirrors the server's notification record shape.
type Notification struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Kind       string                 `json:"kind"`
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	IsRead     bool                   `json:"is_read"`
	ReadAt     *time.Time             `json:"read_at,omitempty"`
	ReminderID *string                `json:"reminder_id,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type listResponse struct {
	Notifications []*Notification `json:"notifications"`
	Total         int64           `json:"total"`
	UnreadCount   int64           `json:"unread_count"`
}

// ScheduleReminderRequest mirrors the server's reminder scheduling body.
type ScheduleReminderRequest struct {
	TaskID   string     `json:"task_id"`
	Title    string     `json:"title"`
	FireAt   time.Time  `json:"fire_at"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ScheduleReminderResult reports whether the server actually armed the
// reminder. Scheduled is false when the fire time had already passed.
type ScheduleReminderResult struct {
	Scheduled bool `json:"scheduled"`
}

type wirePayload struct {
	Type           string          `json:"type"`
	NotificationID string          `json:"notification_id,omitempty"`
	Count          *int64          `json:"count,omitempty"`
	Notification   json.RawMessage `json:"notification,omitempty"`
}

type wireEnvelope struct {
	Event   string      `json:"event"`
	Payload wirePayload `json:"payload"`
}

// Client keeps a local mirror of one user's inbox and reconciles it with the
// server. All exported methods are safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	mu      sync.Mutex
	state   State
	records map[string]*Notification
	unread  int64

	conn *websocket.Conn
	done chan struct{}
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		state:   StateIdle,
		records: make(map[string]*Notification),
	}
}

// State reports the outcome of the most recent mutation.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UnreadCount returns the locally maintained badge count.
func (c *Client) UnreadCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Snapshot returns a copy of the local record set.
func (c *Client) Snapshot() []*Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Notification, 0, len(c.records))
	for _, n := range c.records {
		copied := *n
		out = append(out, &copied)
	}
	return out
}

// Refresh replaces the local mirror with the server's authoritative list.
// The badge count is taken from the fetched list, never from local counters.
func (c *Client) Refresh() error {
	var list listResponse
	if err := c.doJSON(http.MethodGet, "/api/v1/notifications?page_size=0", nil, &list); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]*Notification, len(list.Notifications))
	for _, n := range list.Notifications {
		c.records[n.ID] = n
	}
	c.unread = list.UnreadCount
	return nil
}

// MarkRead optimistically marks a record read, then confirms with the server.
func (c *Client) MarkRead(notificationID string) error {
	return c.mutate(
		func() {
			if n, ok := c.records[notificationID]; ok && !n.IsRead {
				n.IsRead = true
				c.unread--
			}
		},
		http.MethodPut, "/api/v1/notifications/"+notificationID+"/read", nil,
	)
}

// MarkAllRead optimistically marks every record read.
func (c *Client) MarkAllRead() error {
	return c.mutate(
		func() {
			for _, n := range c.records {
				n.IsRead = true
			}
			c.unread = 0
		},
		http.MethodPut, "/api/v1/notifications/read-all", nil,
	)
}

// Delete optimistically removes a record.
func (c *Client) Delete(notificationID string) error {
	return c.mutate(
		func() {
			if n, ok := c.records[notificationID]; ok {
				if !n.IsRead {
					c.unread--
				}
				delete(c.records, notificationID)
			}
		},
		http.MethodDelete, "/api/v1/notifications/"+notificationID, nil,
	)
}

// ClearAll optimistically empties the inbox.
func (c *Client) ClearAll() error {
	return c.mutate(
		func() {
			c.records = make(map[string]*Notification)
			c.unread = 0
		},
		http.MethodDelete, "/api/v1/notifications", nil,
	)
}

// CreateNotification stores a persistent notice. The record is not applied
// optimistically since its id is server-assigned; the created record (or the
// pushed event) brings it into the mirror.
func (c *Client) CreateNotification(kind, message string, payload map[string]interface{}) (*Notification, error) {
	body := map[string]interface{}{
		"kind":    kind,
		"message": message,
	}
	if payload != nil {
		body["payload"] = payload
	}

	var created Notification
	if err := c.doJSON(http.MethodPost, "/api/v1/notifications", body, &created); err != nil {
		c.rollback()
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[created.ID]; !ok {
		copied := created
		c.records[created.ID] = &copied
		if !created.IsRead {
			c.unread++
		}
	}
	c.state = StateCommitted
	return &created, nil
}

// SetReminder asks the server to schedule a reminder.
func (c *Client) SetReminder(req *ScheduleReminderRequest) (*ScheduleReminderResult, error) {
	var result ScheduleReminderResult
	if err := c.doJSON(http.MethodPost, "/api/v1/reminders", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelReminder cancels a scheduled reminder. Unknown ids are a no-op.
func (c *Client) CancelReminder(reminderID string) error {
	return c.doJSON(http.MethodDelete, "/api/v1/reminders/"+reminderID, nil, nil)
}

// mutate applies an optimistic local change, then issues the request. Any
// failure rolls the mirror back by refetching the full list; no attempt is
// made to invert the local change.
func (c *Client) mutate(apply func(), method, path string, body interface{}) error {
	c.mu.Lock()
	apply()
	c.state = StatePending
	c.mu.Unlock()

	if err := c.doJSON(method, path, body, nil); err != nil {
		c.rollback()
		return err
	}

	c.mu.Lock()
	c.state = StateCommitted
	c.mu.Unlock()
	return nil
}

func (c *Client) rollback() {
	c.mu.Lock()
	c.state = StateRolledBack
	c.mu.Unlock()

	// Convergence comes from the authoritative list, even if this fetch
	// itself fails; the next successful Refresh repairs the mirror.
	_ = c.Refresh()
}

func (c *Client) doJSON(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request %s %s failed: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Connect opens the realtime stream and starts applying pushed events to the
// local mirror. It also performs an initial full fetch, since events emitted
// while disconnected are lost.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.mu.Unlock()

	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.mu.Unlock()

	if err := c.Refresh(); err != nil {
		c.Close()
		return err
	}

	go c.readLoop(conn)
	return nil
}

// Close tears down the realtime stream. The local mirror is kept.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.done != nil {
			close(c.done)
			c.done = nil
		}
		c.mu.Unlock()
	}()

	for {
		var envelope wireEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			return
		}
		c.applyEvent(&envelope)
	}
}

// applyEvent reconciles a pushed event against the mirror. Every branch is
// idempotent: the event may describe a change the client already applied
// optimistically. Unknown payload types are ignored.
func (c *Client) applyEvent(envelope *wireEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch envelope.Payload.Type {
	case "created":
		if len(envelope.Payload.Notification) == 0 {
			return
		}
		var n Notification
		if err := json.Unmarshal(envelope.Payload.Notification, &n); err != nil {
			return
		}
		if _, ok := c.records[n.ID]; !ok {
			c.records[n.ID] = &n
			if !n.IsRead {
				c.unread++
			}
		}
	case "delete":
		if n, ok := c.records[envelope.Payload.NotificationID]; ok {
			if !n.IsRead {
				c.unread--
			}
			delete(c.records, envelope.Payload.NotificationID)
		}
	case "markAllRead":
		for _, n := range c.records {
			n.IsRead = true
		}
		c.unread = 0
	case "clearAll":
		c.records = make(map[string]*Notification)
		c.unread = 0
	case "countChanged":
		// The server's count wins over the incremental local counter.
		if envelope.Payload.Count != nil {
			c.unread = *envelope.Payload.Count
		}
	}
}
