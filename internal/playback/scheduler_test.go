// ABOUTME: Tests for the playback scheduler
// ABOUTME: Covers cursor monotonicity, interruption, and chunk drops
package playback

import (
	"testing"

	"github.com/Watchbird-Live/watchbird-go/pkg/pcm"
)

// fakeOutput is an output context with a manually advanced clock that
// records every scheduled source.
type fakeOutput struct {
	now       float64
	resumed   int
	scheduled []*fakeSource
}

type fakeSource struct {
	at      float64
	buf     pcm.Buffer
	stopped bool
	onEnded func()
}

func (f *fakeSource) Stop() { f.stopped = true }

func (o *fakeOutput) CurrentTime() float64 { return o.now }

func (o *fakeOutput) Resume() error {
	o.resumed++
	return nil
}

func (o *fakeOutput) Schedule(buf pcm.Buffer, at float64, onEnded func()) (Source, error) {
	src := &fakeSource{at: at, buf: buf, onEnded: onEnded}
	o.scheduled = append(o.scheduled, src)
	return src, nil
}

func (o *fakeOutput) Close() error { return nil }

// chunk returns an encoded payload of n frames of silence.
func chunk(n int) string {
	return pcm.Encode(make([]float32, n))
}

func TestEnqueueAdvancesCursor(t *testing.T) {
	out := &fakeOutput{now: 1.0}
	s := NewScheduler(out, 24000, 1)

	if s.Cursor() != 1.0 {
		t.Fatalf("expected cursor initialized from clock, got %v", s.Cursor())
	}

	// 24000 frames at 24kHz = 1 second.
	if err := s.Enqueue(chunk(24000)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := out.scheduled[0].at; got != 1.0 {
		t.Errorf("expected start at 1.0, got %v", got)
	}
	if got := s.Cursor(); got != 2.0 {
		t.Errorf("expected cursor 2.0, got %v", got)
	}

	// Second chunk while the first still occupies the timeline.
	if err := s.Enqueue(chunk(12000)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := out.scheduled[1].at; got != 2.0 {
		t.Errorf("expected back-to-back start at 2.0, got %v", got)
	}
	if got := s.Cursor(); got != 2.5 {
		t.Errorf("expected cursor 2.5, got %v", got)
	}
}

func TestCursorNeverBehindClock(t *testing.T) {
	out := &fakeOutput{now: 0}
	s := NewScheduler(out, 24000, 1)

	if err := s.Enqueue(chunk(2400)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Clock jumps past the cursor: the next chunk must not be
	// scheduled in the past.
	out.now = 5.0
	if err := s.Enqueue(chunk(12000)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := out.scheduled[1].at; got != 5.0 {
		t.Errorf("expected start clamped to clock 5.0, got %v", got)
	}
	if got := s.Cursor(); got != 5.5 {
		t.Errorf("expected cursor 5.5, got %v", got)
	}
}

func TestMonotonicStartTimes(t *testing.T) {
	out := &fakeOutput{}
	s := NewScheduler(out, 24000, 1)

	sizes := []int{2400, 24000, 240, 4800, 12000}
	for _, n := range sizes {
		if err := s.Enqueue(chunk(n)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	for i := 1; i < len(out.scheduled); i++ {
		prev := out.scheduled[i-1]
		prevEnd := prev.at + prev.buf.Duration().Seconds()
		if out.scheduled[i].at < prevEnd {
			t.Errorf("chunk %d starts at %v before previous end %v", i, out.scheduled[i].at, prevEnd)
		}
	}
}

func TestInterruptClearsFutureAudio(t *testing.T) {
	out := &fakeOutput{}
	s := NewScheduler(out, 24000, 1)

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(chunk(24000)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if got := s.ActiveSources(); got != 3 {
		t.Fatalf("expected 3 active sources, got %d", got)
	}

	out.now = 0.5
	s.Interrupt()

	if got := s.ActiveSources(); got != 0 {
		t.Errorf("expected empty active set after interrupt, got %d", got)
	}
	for i, src := range out.scheduled {
		if !src.stopped {
			t.Errorf("source %d not stopped", i)
		}
	}
	if got := s.Cursor(); got != 0.5 {
		t.Errorf("expected cursor reset to clock 0.5, got %v", got)
	}

	// The next chunk must start no earlier than the interruption time.
	if err := s.Enqueue(chunk(2400)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if got := out.scheduled[3].at; got < 0.5 {
		t.Errorf("post-interrupt chunk starts at %v, before cut point", got)
	}
}

func TestMalformedChunkDropped(t *testing.T) {
	out := &fakeOutput{}
	s := NewScheduler(out, 24000, 2)

	// 2 bytes is one 16-bit sample, not a whole stereo frame.
	if err := s.Enqueue(chunk(1)); err == nil {
		t.Fatal("expected error for misaligned stereo chunk")
	}
	if err := s.Enqueue("%%%not-base64%%%"); err == nil {
		t.Fatal("expected error for invalid transport payload")
	}

	stats := s.Stats()
	if stats.Dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", stats.Dropped)
	}
	if len(out.scheduled) != 0 {
		t.Errorf("expected nothing scheduled, got %d", len(out.scheduled))
	}
	if s.Cursor() != 0 {
		t.Errorf("expected cursor untouched, got %v", s.Cursor())
	}

	// The session recovers: a valid chunk still schedules.
	if err := s.Enqueue(chunk(2)); err != nil {
		t.Fatalf("expected recovery after drops, got %v", err)
	}
}

func TestFinishedSourceLeavesSet(t *testing.T) {
	out := &fakeOutput{}
	s := NewScheduler(out, 24000, 1)

	if err := s.Enqueue(chunk(2400)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	out.scheduled[0].onEnded()

	if got := s.ActiveSources(); got != 0 {
		t.Errorf("expected source removed on completion, got %d active", got)
	}
	if stats := s.Stats(); stats.Played != 1 {
		t.Errorf("expected 1 played, got %d", stats.Played)
	}

	// Completing again must not double-count.
	out.scheduled[0].onEnded()
	if stats := s.Stats(); stats.Played != 1 {
		t.Errorf("expected played count stable, got %d", stats.Played)
	}
}
