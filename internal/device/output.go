// ABOUTME: Clocked audio output backed by the oto library
// ABOUTME: Schedules PCM buffers against a monotonic context clock
package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Watchbird-Live/watchbird-go/internal/playback"
	"github.com/Watchbird-Live/watchbird-go/pkg/pcm"
)

// otoContext is the subset of oto.Context the output uses.
type otoContext interface {
	NewPlayer(r io.Reader) *oto.Player
	Resume() error
	Suspend() error
}

// newContext is swapped out by tests; oto contexts need real hardware.
var newContext = func(op *oto.NewContextOptions) (otoContext, chan struct{}, error) {
	return oto.NewContext(op)
}

// oto allows exactly one context per process, so the context is
// acquired once and shared by every Output. Sessions suspend it on
// Close and resume it on the next open.
var sharedContext struct {
	mu         sync.Mutex
	ctx        otoContext
	sampleRate int
	channels   int
}

// acquireContext returns the process-wide oto context, creating it on
// first use. A later request with a different format is an error; the
// device format cannot change once the context exists.
func acquireContext(sampleRate, channels int) (otoContext, error) {
	sharedContext.mu.Lock()
	defer sharedContext.mu.Unlock()

	if sharedContext.ctx != nil {
		if sharedContext.sampleRate != sampleRate || sharedContext.channels != channels {
			return nil, fmt.Errorf("audio output already open at %dHz/%dch, cannot reopen at %dHz/%dch",
				sharedContext.sampleRate, sharedContext.channels, sampleRate, channels)
		}
		if err := sharedContext.ctx.Resume(); err != nil {
			return nil, fmt.Errorf("resume output context: %w", err)
		}
		return sharedContext.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, ready, err := newContext(op)
	if err != nil {
		return nil, fmt.Errorf("create output context: %w", err)
	}
	<-ready

	sharedContext.ctx = otoCtx
	sharedContext.sampleRate = sampleRate
	sharedContext.channels = channels

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)
	return otoCtx, nil
}

// Output is an oto-backed playback.OutputContext. The clock starts at
// zero when the output is opened and only moves forward.
type Output struct {
	otoCtx   otoContext
	start    time.Time
	channels int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewOutput opens an audio output at the given sample rate. The
// underlying device context is shared process-wide; each Output gets
// its own clock and its own set of scheduled sources.
func NewOutput(sampleRate, channels int) (*Output, error) {
	otoCtx, err := acquireContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Output{
		otoCtx:   otoCtx,
		start:    time.Now(),
		channels: channels,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// CurrentTime returns seconds since this output was opened.
func (o *Output) CurrentTime() float64 {
	return time.Since(o.start).Seconds()
}

// Resume wakes the device from a suspended power state.
func (o *Output) Resume() error {
	return o.otoCtx.Resume()
}

// Schedule queues a buffer to begin playing at the given clock time.
// The returned source can be force-stopped; onEnded fires after the
// buffer finishes normally.
func (o *Output) Schedule(buf pcm.Buffer, at float64, onEnded func()) (playback.Source, error) {
	data := pcm.Interleave(buf)

	srcCtx, srcCancel := context.WithCancel(o.ctx)
	src := &otoSource{cancel: srcCancel}

	go func() {
		if delay := at - o.CurrentTime(); delay > 0 {
			timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-srcCtx.Done():
				return
			}
		}

		if srcCtx.Err() != nil {
			return
		}

		player := o.otoCtx.NewPlayer(bytes.NewReader(data))
		player.Play()

		select {
		case <-time.After(buf.Duration()):
			_ = player.Close()
			if onEnded != nil {
				onEnded()
			}
		case <-srcCtx.Done():
			// Hard cut: silence immediately, drop buffered audio.
			player.Pause()
			_ = player.Close()
		}
	}()

	return src, nil
}

// Close tears down this output. Scheduled sources are cancelled and
// the shared device context is suspended until the next open.
func (o *Output) Close() error {
	o.cancel()
	return o.otoCtx.Suspend()
}

// otoSource is one scheduled buffer's cancellation handle.
type otoSource struct {
	cancel context.CancelFunc
}

// Stop cancels the source. Stopping a finished source is a no-op.
func (s *otoSource) Stop() {
	s.cancel()
}
