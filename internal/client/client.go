package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
)

// Client is the client-side core of the chat protocol: it registers over the
// websocket, joins conversation rooms, sends messages and typing signals, and
// reconciles live events with history pages fetched over HTTP.
type Client struct {
	UserID   int
	Timeline *Timeline

	httpBase string
	httpc    *http.Client
	pageSize int
	typing   *Debouncer

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu     sync.Mutex
	peerID int
	page   int

	onMessage      func(models.DeliveredMessage)
	onTyping       func(bool)
	onUserStatus   func(models.StatusPayload)
	onOnlineStatus func(bool)
	onError        func(string)
}

// Options tunes a Client; the zero value picks sensible defaults. Callbacks
// are fixed at dial time because the read loop starts before Dial returns.
type Options struct {
	PageSize       int
	TypingInterval time.Duration
	HTTPClient     *http.Client

	// Optional event callbacks, invoked from the read loop.
	OnMessage      func(models.DeliveredMessage)
	OnTyping       func(bool)
	OnUserStatus   func(models.StatusPayload)
	OnOnlineStatus func(bool)
	OnError        func(string)
}

// Dial connects to the websocket endpoint, registers the user and starts the
// read loop.
func Dial(ctx context.Context, wsURL, httpBase string, userID int, opts Options) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	c := &Client{
		UserID:         userID,
		Timeline:       NewTimeline(userID),
		httpBase:       httpBase,
		httpc:          httpc,
		pageSize:       pageSize,
		conn:           conn,
		onMessage:      opts.OnMessage,
		onTyping:       opts.OnTyping,
		onUserStatus:   opts.OnUserStatus,
		onOnlineStatus: opts.OnOnlineStatus,
		onError:        opts.OnError,
	}
	c.typing = NewDebouncer(opts.TypingInterval, func(v bool) {
		c.mu.Lock()
		peer := c.peerID
		c.mu.Unlock()
		if peer == 0 {
			return
		}
		_ = c.writeEvent(models.EventTyping, models.TypingPayload{ReceiverID: peer, IsTyping: v})
	})

	if err := c.writeEvent(models.EventRegisterUser, models.RegisterPayload{UserID: userID}); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

// OpenConversation selects the peer: it resets the timeline, joins the room
// named by the peer's user id and loads the first history page.
func (c *Client) OpenConversation(ctx context.Context, peerID int) error {
	c.mu.Lock()
	c.peerID = peerID
	c.page = 0
	c.Timeline = NewTimeline(c.UserID)
	c.mu.Unlock()

	if err := c.writeEvent(models.EventJoinChat, models.JoinPayload{RoomID: peerID}); err != nil {
		return err
	}
	_, err := c.LoadOlder(ctx)
	return err
}

// LoadOlder backfills the next older history page, prepending it to the
// timeline. It returns how many entries were inserted so the caller can keep
// the viewport anchored while older content appears above it.
func (c *Client) LoadOlder(ctx context.Context) (int, error) {
	c.mu.Lock()
	peer := c.peerID
	page := c.page + 1
	c.mu.Unlock()
	if peer == 0 {
		return 0, fmt.Errorf("no conversation selected")
	}

	msgs, err := c.fetchPage(ctx, peer, page)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.page = page
	timeline := c.Timeline
	c.mu.Unlock()
	return timeline.Prepend(msgs), nil
}

func (c *Client) fetchPage(ctx context.Context, peerID, page int) ([]models.Message, error) {
	url := fmt.Sprintf("%s/api/messages?userId=%d&chatId=%d&page=%d&limit=%d",
		c.httpBase, c.UserID, peerID, page, c.pageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return body.Messages, nil
}

// SendMessage sends a message to the currently open conversation.
func (c *Client) SendMessage(content string, attachments []string) error {
	c.mu.Lock()
	peer := c.peerID
	c.mu.Unlock()
	if peer == 0 {
		return fmt.Errorf("no conversation selected")
	}
	return c.writeEvent(models.EventSendMessage, models.SendPayload{
		SenderID:    c.UserID,
		ReceiverID:  peer,
		Content:     content,
		Attachments: attachments,
	})
}

// Typing reports the local typing state; rapid calls are coalesced by the
// debouncer.
func (c *Client) Typing(isTyping bool) {
	c.typing.Offer(isTyping)
}

// FlushTyping forces out a suppressed typing value, typically on blur or
// before sending.
func (c *Client) FlushTyping() {
	c.typing.Flush()
}

// CheckOnline asks the server whether a user is online; the answer arrives
// through OnOnlineStatus.
func (c *Client) CheckOnline(userID int) error {
	return c.writeEvent(models.EventCheckOnlineStatus, models.RegisterPayload{UserID: userID})
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) writeEvent(event string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(models.NewEnvelope(event, data))
}

func (c *Client) readLoop() {
	for {
		var env models.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Event {
		case models.EventMessage:
			var msg models.DeliveredMessage
			if json.Unmarshal(env.Data, &msg) != nil {
				continue
			}
			c.mu.Lock()
			timeline := c.Timeline
			c.mu.Unlock()
			if timeline.Append(msg) && c.onMessage != nil {
				c.onMessage(msg)
			}
		case models.EventTyping:
			var p models.TypingPayload
			if json.Unmarshal(env.Data, &p) == nil && c.onTyping != nil {
				c.onTyping(p.IsTyping)
			}
		case models.EventUserStatus:
			var p models.StatusPayload
			if json.Unmarshal(env.Data, &p) == nil && c.onUserStatus != nil {
				c.onUserStatus(p)
			}
		case models.EventOnlineStatus:
			var online bool
			if json.Unmarshal(env.Data, &online) == nil && c.onOnlineStatus != nil {
				c.onOnlineStatus(online)
			}
		case models.EventError:
			var p models.ErrorPayload
			if json.Unmarshal(env.Data, &p) == nil && c.onError != nil {
				c.onError(p.Error)
			}
		}
	}
}
