// ABOUTME: Gapless playback scheduler for agent audio chunks
// ABOUTME: Paces decoded buffers onto one output timeline with hard cuts
package playback

import (
	"fmt"
	"log"
	"sync"

	"github.com/Watchbird-Live/watchbird-go/pkg/pcm"
)

// OutputContext is a clocked playback device. CurrentTime is seconds
// on a monotonically increasing clock; scheduled sources begin at an
// explicit time on that clock.
type OutputContext interface {
	CurrentTime() float64
	Resume() error
	Schedule(buf pcm.Buffer, at float64, onEnded func()) (Source, error)
	Close() error
}

// Source is one scheduled buffer. Stop is a hard cut and must be safe
// on sources that already finished.
type Source interface {
	Stop()
}

// Stats tracks scheduler counters.
type Stats struct {
	Received      int64
	Played        int64
	Dropped       int64
	Interruptions int64
}

// Scheduler owns the cursor and the set of in-flight sources for one
// session. All mutations are guarded; callbacks may arrive from the
// output device's goroutines.
type Scheduler struct {
	out        OutputContext
	sampleRate int
	channels   int

	mu     sync.Mutex
	cursor float64
	active map[int64]Source
	nextID int64
	stats  Stats
}

// NewScheduler creates a scheduler whose cursor starts at the output
// clock's current value.
func NewScheduler(out OutputContext, sampleRate, channels int) *Scheduler {
	return &Scheduler{
		out:        out,
		sampleRate: sampleRate,
		channels:   channels,
		cursor:     out.CurrentTime(),
		active:     make(map[int64]Source),
	}
}

// Enqueue decodes one transport payload and schedules it to start at
// the later of the cursor and the output clock, then advances the
// cursor past the buffer. Malformed chunks are dropped; the session
// continues.
func (s *Scheduler) Enqueue(payload string) error {
	if err := s.out.Resume(); err != nil {
		log.Printf("Output resume failed: %v", err)
	}

	raw, err := pcm.DecodePayload(payload)
	if err != nil {
		s.drop()
		return fmt.Errorf("decode chunk: %w", err)
	}

	buf, err := pcm.ToBuffer(raw, s.sampleRate, s.channels)
	if err != nil {
		s.drop()
		return fmt.Errorf("interpret chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	startAt := s.cursor
	if now := s.out.CurrentTime(); now > startAt {
		startAt = now
	}

	id := s.nextID
	s.nextID++

	src, err := s.out.Schedule(buf, startAt, func() { s.finish(id) })
	if err != nil {
		s.stats.Dropped++
		return fmt.Errorf("schedule chunk: %w", err)
	}

	s.active[id] = src
	s.cursor = startAt + buf.Duration().Seconds()
	s.stats.Received++
	return nil
}

// Interrupt force-stops every in-flight source, clears the set, and
// resets the cursor to the output clock. Queued-but-unplayed audio is
// discarded; this is a hard cut, not a fade.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.active {
		src.Stop()
	}
	s.active = make(map[int64]Source)
	s.cursor = s.out.CurrentTime()
	s.stats.Interruptions++
}

// finish removes a source that completed playback normally.
func (s *Scheduler) finish(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[id]; ok {
		delete(s.active, id)
		s.stats.Played++
	}
}

func (s *Scheduler) drop() {
	s.mu.Lock()
	s.stats.Dropped++
	s.mu.Unlock()
}

// Cursor returns the next available start time on the output timeline.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// ActiveSources returns the number of scheduled-but-unfinished sources.
func (s *Scheduler) ActiveSources() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Stats returns a snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
