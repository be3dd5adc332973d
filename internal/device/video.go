// ABOUTME: Poster-backed video frame source for the frame sampler
// ABOUTME: Serves a decoded still image as the currently playing frame
package device

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// PosterSource exposes a decoded poster image as a video frame source.
// Before Load succeeds its natural size is zero, which the sampler
// treats as "video not yet ready".
type PosterSource struct {
	mu    sync.RWMutex
	frame image.Image
}

// NewPosterSource returns an empty source; call Load when the poster
// for the selected item is available.
func NewPosterSource() *PosterSource {
	return &PosterSource{}
}

// Load decodes the image at path and makes it the current frame.
func (p *PosterSource) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open poster: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode poster: %w", err)
	}

	p.mu.Lock()
	p.frame = img
	p.mu.Unlock()
	return nil
}

// Clear drops the current frame, returning the source to the
// not-yet-loaded state.
func (p *PosterSource) Clear() {
	p.mu.Lock()
	p.frame = nil
	p.mu.Unlock()
}

// NaturalSize returns the pixel dimensions of the current frame, or
// zeros when nothing is loaded.
func (p *PosterSource) NaturalSize() (int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.frame == nil {
		return 0, 0
	}
	b := p.frame.Bounds()
	return b.Dx(), b.Dy()
}

// CaptureFrame returns the current frame.
func (p *PosterSource) CaptureFrame() (image.Image, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.frame == nil {
		return nil, fmt.Errorf("no frame loaded")
	}
	return p.frame, nil
}
