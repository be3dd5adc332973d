// ABOUTME: Session lifecycle manager for the live companion
// ABOUTME: Owns the connect/disconnect state machine and all resources
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Watchbird-Live/watchbird-go/internal/device"
	"github.com/Watchbird-Live/watchbird-go/internal/frames"
	"github.com/Watchbird-Live/watchbird-go/internal/playback"
	"github.com/Watchbird-Live/watchbird-go/internal/remote"
	"github.com/Watchbird-Live/watchbird-go/pkg/pcm"
	"github.com/Watchbird-Live/watchbird-go/pkg/relevance"
)

// State is the session connection state. Closing always resets fully
// to Idle; there is no distinct closed state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Status is the externally visible session state.
type Status struct {
	State   State
	MicLive bool
}

// Conn is the narrow view of a remote session the manager needs.
// *remote.Client satisfies it; tests use fakes.
type Conn interface {
	SendAudio(payload string) error
	SendImage(payload string) error
	Events() <-chan remote.Event
	Close() error
}

// Dialer opens a remote session.
type Dialer func(ctx context.Context, config remote.Config) (Conn, error)

// Devices provides the audio hardware. Factories keep acquisition on
// the connect path so a denied device fails the attempt, not startup.
type Devices struct {
	NewOutput     func(sampleRate int) (playback.OutputContext, error)
	NewMicrophone func(sampleRate, frameSize int) (device.Microphone, error)
}

// Config holds session parameters and presentation callbacks.
type Config struct {
	Remote remote.Config // SystemContext is filled per connect

	InputSampleRate  int
	OutputSampleRate int
	MicFrameSize     int

	CaptureInterval time.Duration
	DownscaleFactor int
	JPEGQuality     int

	OnStatus func(Status)
	OnError  func(error)
}

// Manager owns at most one live session at a time. Every resource a
// session acquires is released exactly once on exactly one teardown
// path, whether teardown comes from Disconnect, a connect failure, or
// a remote close.
type Manager struct {
	config  Config
	dial    Dialer
	devices Devices

	mu        sync.Mutex
	state     State
	micLive   bool
	sessionID string
	conn      Conn
	output    playback.OutputContext
	mic       device.Microphone
	scheduler *playback.Scheduler
	sampler   *frames.Sampler
}

// NewManager creates an idle manager.
func NewManager(config Config, dial Dialer, devices Devices) *Manager {
	return &Manager{
		config:  config,
		dial:    dial,
		devices: devices,
		state:   StateIdle,
	}
}

// Connect establishes a session for the given content item. It is a
// guarded no-op when a session is already connecting or active. The
// sequence acquires the output context, the microphone with its
// capture pipeline, and the remote session, in that order; any
// failure tears down everything acquired so far before reporting.
// Connect blocks until the remote acknowledges or ctx is cancelled.
func (m *Manager) Connect(ctx context.Context, item relevance.Item, video frames.Source) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.sessionID = uuid.New().String()
	m.mu.Unlock()
	m.notify()

	log.Printf("Session %s: connecting for %q", m.shortID(), item.Title)

	output, err := m.devices.NewOutput(m.config.OutputSampleRate)
	if err != nil {
		return m.fail(fmt.Errorf("open output: %w", err))
	}
	scheduler := playback.NewScheduler(output, m.config.OutputSampleRate, 1)
	if !m.adopt(func() {
		m.output = output
		m.scheduler = scheduler
	}) {
		output.Close()
		return nil
	}

	mic, err := m.devices.NewMicrophone(m.config.InputSampleRate, m.config.MicFrameSize)
	if err != nil {
		return m.fail(fmt.Errorf("microphone access: %w", err))
	}
	if !m.adopt(func() { m.mic = mic }) {
		mic.Stop()
		return nil
	}
	if err := mic.Start(m.forwardMicFrame); err != nil {
		return m.fail(fmt.Errorf("microphone access: %w", err))
	}

	remoteConfig := m.config.Remote
	remoteConfig.SystemContext = systemContext(item)
	conn, err := m.dial(ctx, remoteConfig)
	if err != nil {
		return m.fail(fmt.Errorf("open session: %w", err))
	}
	if !m.adopt(func() { m.conn = conn }) {
		conn.Close()
		return nil
	}

	if err := m.waitForOpen(ctx, conn); err != nil {
		return m.fail(err)
	}

	sampler := frames.New(video, conn.SendImage, m.config.CaptureInterval, m.config.DownscaleFactor, m.config.JPEGQuality)
	if !m.adopt(func() {
		m.sampler = sampler
		m.state = StateActive
		m.micLive = true
	}) {
		return nil
	}
	go sampler.Run()
	go m.consumeEvents(conn)

	m.notify()
	log.Printf("Session %s: active", m.shortID())
	return nil
}

// adopt stores acquired resources while the connect attempt is still
// alive. It returns false when a concurrent Disconnect already reset
// the session, in which case the caller releases what it holds.
func (m *Manager) adopt(store func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnecting {
		return false
	}
	store()
	return true
}

// waitForOpen blocks until the remote acknowledges setup. There is no
// internal timeout: an attempt that never acknowledges stays in
// Connecting until ctx is cancelled or Disconnect closes the conn.
func (m *Manager) waitForOpen(ctx context.Context, conn Conn) error {
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				return errors.New("session closed during negotiation")
			}
			switch ev.Kind {
			case remote.EventOpen:
				return nil
			case remote.EventError:
				return fmt.Errorf("session negotiation: %w", ev.Err)
			case remote.EventClosed:
				return errors.New("session closed during negotiation")
			default:
				// Unexpected events before open are ignored.
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// consumeEvents routes remote events for the lifetime of one session.
func (m *Manager) consumeEvents(conn Conn) {
	for ev := range conn.Events() {
		switch ev.Kind {
		case remote.EventAudio:
			m.mu.Lock()
			scheduler := m.scheduler
			live := m.conn == conn
			m.mu.Unlock()
			if !live || scheduler == nil {
				// Session torn down while this chunk was in flight.
				continue
			}
			if err := scheduler.Enqueue(ev.Audio); err != nil {
				log.Printf("Dropped audio chunk: %v", err)
			}

		case remote.EventInterrupted:
			m.mu.Lock()
			scheduler := m.scheduler
			live := m.conn == conn
			m.mu.Unlock()
			if live && scheduler != nil {
				scheduler.Interrupt()
			}

		case remote.EventTurnComplete:
			// Informational only.

		case remote.EventError:
			log.Printf("Session error: %v", ev.Err)
			m.reportError(ev.Err)
			m.disconnectConn(conn)

		case remote.EventClosed:
			log.Printf("Session closed by remote")
			m.disconnectConn(conn)
		}
	}

	// The event channel closing means the connection is gone.
	m.disconnectConn(conn)
}

// forwardMicFrame encodes one captured frame and sends it over the
// session. Frames arriving after teardown are dropped.
func (m *Manager) forwardMicFrame(frame []float32) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.SendAudio(pcm.Encode(frame)); err != nil {
		log.Printf("Mic frame send failed: %v", err)
	}
}

// Disconnect tears down the session. Idempotent and callable from any
// state, including concurrently with an in-flight Connect.
func (m *Manager) Disconnect() {
	if m.teardown() {
		log.Printf("Session disconnected")
		m.notify()
	}
}

// disconnectConn tears down only if conn is still the live session,
// so a stale event loop cannot kill a successor session.
func (m *Manager) disconnectConn(conn Conn) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.Disconnect()
}

// teardown releases every held resource exactly once and resets to
// Idle. Returns false when there was nothing to release.
func (m *Manager) teardown() bool {
	m.mu.Lock()
	changed := m.state != StateIdle || m.conn != nil || m.output != nil || m.mic != nil

	conn := m.conn
	output := m.output
	mic := m.mic
	scheduler := m.scheduler
	sampler := m.sampler

	m.conn = nil
	m.output = nil
	m.mic = nil
	m.scheduler = nil
	m.sampler = nil
	m.state = StateIdle
	m.micLive = false
	m.mu.Unlock()

	if sampler != nil {
		sampler.Stop()
	}
	if scheduler != nil {
		// Force-stop everything still scheduled; sources that already
		// finished ignore the stop.
		scheduler.Interrupt()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("Session close: %v", err)
		}
	}
	if output != nil {
		if err := output.Close(); err != nil {
			log.Printf("Output close: %v", err)
		}
	}
	if mic != nil {
		if err := mic.Stop(); err != nil {
			log.Printf("Microphone stop: %v", err)
		}
	}

	return changed
}

// fail aborts a connect attempt: full teardown, then the error is
// reported and returned. When teardown finds nothing to release, a
// concurrent Disconnect already reset the session; the attempt was
// cancelled on purpose, so nothing is reported.
func (m *Manager) fail(err error) error {
	if !m.teardown() {
		return nil
	}
	m.notify()
	m.reportError(err)
	return err
}

// Status returns the current connection state and mic flag.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, MicLive: m.micLive}
}

// PlaybackStats returns the live scheduler's counters, or zeros when
// no session is active.
func (m *Manager) PlaybackStats() playback.Stats {
	m.mu.Lock()
	scheduler := m.scheduler
	m.mu.Unlock()

	if scheduler == nil {
		return playback.Stats{}
	}
	return scheduler.Stats()
}

// FrameStats returns the live sampler's counters, or zeros when no
// session is active.
func (m *Manager) FrameStats() frames.Stats {
	m.mu.Lock()
	sampler := m.sampler
	m.mu.Unlock()

	if sampler == nil {
		return frames.Stats{}
	}
	return sampler.Stats()
}

func (m *Manager) notify() {
	if m.config.OnStatus != nil {
		m.config.OnStatus(m.Status())
	}
}

func (m *Manager) reportError(err error) {
	if m.config.OnError != nil && err != nil {
		m.config.OnError(err)
	}
}

func (m *Manager) shortID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessionID) >= 8 {
		return m.sessionID[:8]
	}
	return m.sessionID
}

// systemContext builds the negotiated system-context string from the
// selected item's metadata.
func systemContext(item relevance.Item) string {
	return fmt.Sprintf(
		"You are a friendly companion watching the video %q together with the user. "+
			"The video is described as: %s. React to what you see and hear, and keep "+
			"your remarks short and conversational.",
		item.Title, item.Description,
	)
}
