// ABOUTME: Periodic video frame sampler for the live session
// ABOUTME: Downscales stills, encodes JPEG, and forwards them upstream
package frames

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// Source is the currently playing video. NaturalSize is (0, 0) until
// the video has loaded.
type Source interface {
	NaturalSize() (width, height int)
	CaptureFrame() (image.Image, error)
}

// Stats tracks sampler counters.
type Stats struct {
	Sent    int64
	Skipped int64
}

// Sampler captures a downscaled still once per interval and forwards
// the encoded frame over the active session. Per-tick failures are
// skipped; the timer continues.
type Sampler struct {
	source   Source
	send     func(payload string) error
	interval time.Duration
	scale    int
	quality  int

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	stats Stats
}

// New creates a sampler. scale divides each axis; quality is the JPEG
// encoder quality.
func New(source Source, send func(string) error, interval time.Duration, scale, quality int) *Sampler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sampler{
		source:   source,
		send:     send,
		interval: interval,
		scale:    scale,
		quality:  quality,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run captures frames until Stop is called.
func (s *Sampler) Run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick performs one capture. Failures are logged and skipped.
func (s *Sampler) tick() {
	payload, err := s.capture()
	if err != nil {
		s.skip()
		log.Printf("Frame capture skipped: %v", err)
		return
	}
	if payload == "" {
		// Video not yet loaded; not an error.
		s.skip()
		return
	}

	if err := s.send(payload); err != nil {
		s.skip()
		log.Printf("Frame send failed: %v", err)
		return
	}

	s.mu.Lock()
	s.stats.Sent++
	s.mu.Unlock()
}

// capture grabs, downscales, and encodes one frame. An empty payload
// with nil error means the source has no dimensions yet.
func (s *Sampler) capture() (string, error) {
	width, height := s.source.NaturalSize()
	if width == 0 || height == 0 {
		return "", nil
	}

	frame, err := s.source.CaptureFrame()
	if err != nil {
		return "", fmt.Errorf("capture frame: %w", err)
	}

	scaled := Downscale(frame, s.scale)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: s.quality}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Stop halts the sampler. Safe to call more than once.
func (s *Sampler) Stop() {
	s.cancel()
}

func (s *Sampler) skip() {
	s.mu.Lock()
	s.stats.Skipped++
	s.mu.Unlock()
}

// Stats returns a snapshot of the sampler counters.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Downscale shrinks an image by an integer factor per axis, with a
// minimum output of one pixel.
func Downscale(src image.Image, factor int) image.Image {
	if factor <= 1 {
		return src
	}

	b := src.Bounds()
	w := b.Dx() / factor
	h := b.Dy() / factor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
