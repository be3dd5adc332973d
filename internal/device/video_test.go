// ABOUTME: Tests for the poster video source
package device

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPoster(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poster.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPosterSourceLifecycle(t *testing.T) {
	src := NewPosterSource()

	if w, h := src.NaturalSize(); w != 0 || h != 0 {
		t.Errorf("unloaded size = %dx%d, want 0x0", w, h)
	}
	if _, err := src.CaptureFrame(); err == nil {
		t.Error("CaptureFrame() should fail with nothing loaded")
	}

	if err := src.Load(writeTestPoster(t, 64, 48)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if w, h := src.NaturalSize(); w != 64 || h != 48 {
		t.Errorf("size = %dx%d, want 64x48", w, h)
	}
	frame, err := src.CaptureFrame()
	if err != nil {
		t.Fatalf("CaptureFrame() error = %v", err)
	}
	if frame.Bounds().Dx() != 64 {
		t.Errorf("frame width = %d, want 64", frame.Bounds().Dx())
	}

	src.Clear()
	if w, h := src.NaturalSize(); w != 0 || h != 0 {
		t.Errorf("cleared size = %dx%d, want 0x0", w, h)
	}
}

func TestPosterSourceLoadMissingFile(t *testing.T) {
	src := NewPosterSource()
	if err := src.Load(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
