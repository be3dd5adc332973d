// ABOUTME: WebSocket client for the live multimodal session service
// ABOUTME: Handles setup handshake, realtime input, and event routing
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Config holds the session negotiation parameters.
type Config struct {
	Endpoint      string // websocket URL of the session service
	APIKey        string
	Model         string
	Voice         string
	SystemContext string
}

// EventKind identifies a session event.
type EventKind int

const (
	// EventOpen is emitted once when the server acknowledges setup.
	EventOpen EventKind = iota
	// EventAudio carries one base64 audio payload from the agent.
	EventAudio
	// EventInterrupted signals the user spoke over the agent; queued
	// audio must be discarded.
	EventInterrupted
	// EventTurnComplete marks the end of an agent turn.
	EventTurnComplete
	// EventClosed is emitted when the server closes the session.
	EventClosed
	// EventError is emitted on a transport or protocol failure.
	EventError
)

// Event is one callback-delivered session event.
type Event struct {
	Kind     EventKind
	Audio    string // base64 payload, EventAudio only
	MIMEType string
	Err      error // EventError only
}

// Client is a websocket connection to the session service.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	events chan Event

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// Dial connects to the session service and sends the setup frame.
// The returned client emits EventOpen once the server acknowledges;
// no timeout is applied here, callers cancel via Close.
func Dial(ctx context.Context, config Config) (*Client, error) {
	endpoint, err := sessionURL(config)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial session service: %w", err)
	}

	clientCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config:    config,
		conn:      conn,
		events:    make(chan Event, 64),
		connected: true,
		ctx:       clientCtx,
		cancel:    cancel,
	}

	if err := c.sendSetup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	go c.readMessages()

	return c, nil
}

// sessionURL appends the API key to the configured endpoint.
func sessionURL(config Config) (string, error) {
	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("endpoint must use ws or wss scheme, got %q", u.Scheme)
	}
	if config.APIKey != "" {
		q := u.Query()
		q.Set("key", config.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// sendSetup negotiates response modality, voice, and system context.
func (c *Client) sendSetup() error {
	setup := setupMessage{
		Setup: setupPayload{
			Model: c.config.Model,
			GenerationConfig: generationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &speechConfig{
					VoiceConfig: voiceConfig{
						PrebuiltVoiceConfig: prebuiltVoice{VoiceName: c.config.Voice},
					},
				},
			},
		},
	}
	if c.config.SystemContext != "" {
		setup.Setup.SystemInstruction = &contentPayload{
			Parts: []part{{Text: c.config.SystemContext}},
		}
	}
	return c.sendJSON(setup)
}

// SendAudio forwards one encoded microphone payload.
func (c *Client) SendAudio(payload string) error {
	return c.sendJSON(realtimeMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []blob{{MIMEType: AudioMimeType, Data: payload}},
		},
	})
}

// SendImage forwards one encoded video frame.
func (c *Client) SendImage(payload string) error {
	return c.sendJSON(realtimeMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []blob{{MIMEType: ImageMimeType, Data: payload}},
		},
	})
}

func (c *Client) sendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(v)
}

// Events returns the session event channel. It is closed when the
// connection terminates.
func (c *Client) Events() <-chan Event {
	return c.events
}

// readMessages reads and routes inbound frames until the connection
// drops or Close is called.
func (c *Client) readMessages() {
	defer close(c.events)
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(Event{Kind: EventClosed})
			} else {
				c.emit(Event{Kind: EventError, Err: err})
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes one server frame into events.
func (c *Client) handleMessage(data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse session frame: %v", err)
		return
	}

	if msg.SetupComplete != nil {
		c.emit(Event{Kind: EventOpen})
	}

	sc := msg.ServerContent
	if sc == nil {
		return
	}

	// Interruption first: it invalidates any queued audio, including
	// audio carried in the same frame.
	if sc.Interrupted {
		c.emit(Event{Kind: EventInterrupted})
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
				continue
			}
			c.emit(Event{
				Kind:     EventAudio,
				Audio:    p.InlineData.Data,
				MIMEType: p.InlineData.MIMEType,
			})
		}
	}

	if sc.TurnComplete {
		c.emit(Event{Kind: EventTurnComplete})
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	c.cancel()
	return c.conn.Close()
}

// IsConnected reports whether the websocket is still open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
