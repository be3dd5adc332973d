// ABOUTME: Microphone capture backed by the malgo library
// ABOUTME: Delivers fixed-size float32 frames to a capture callback
package device

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Microphone is a permission-gated capture stream yielding fixed-size
// float sample frames.
type Microphone interface {
	Start(onFrame func([]float32)) error
	Stop() error
}

// CaptureDevice captures mono float32 audio from the default input
// device and accumulates it into fixed-size frames.
type CaptureDevice struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	frameSize  int

	mu      sync.Mutex
	pending []float32
	stopped bool
}

// NewMicrophone initializes the capture backend. Device access errors
// surface here or on Start, so a denied microphone fails the connect
// sequence rather than the steady state.
func NewMicrophone(sampleRate, frameSize int) (*CaptureDevice, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init capture context: %w", err)
	}

	return &CaptureDevice{
		malgoCtx:   malgoCtx,
		sampleRate: sampleRate,
		frameSize:  frameSize,
	}, nil
}

// Start opens the capture device and begins delivering frames. Each
// callback receives exactly frameSize samples.
func (c *CaptureDevice) Start(onFrame func([]float32)) error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.sampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.push(decodeFloat32(input), onFrame)
		},
	}

	device, err := malgo.InitDevice(c.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start microphone: %w", err)
	}

	c.device = device
	log.Printf("Microphone capture started: %dHz, %d-sample frames", c.sampleRate, c.frameSize)
	return nil
}

// push accumulates captured samples and emits whole frames.
func (c *CaptureDevice) push(samples []float32, onFrame func([]float32)) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, samples...)

	var frames [][]float32
	for len(c.pending) >= c.frameSize {
		frame := make([]float32, c.frameSize)
		copy(frame, c.pending[:c.frameSize])
		c.pending = c.pending[c.frameSize:]
		frames = append(frames, frame)
	}
	c.mu.Unlock()

	for _, frame := range frames {
		onFrame(frame)
	}
}

// Stop halts capture and releases the device. Safe to call more than
// once.
func (c *CaptureDevice) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	device := c.device
	c.device = nil
	c.pending = nil
	c.mu.Unlock()

	if device != nil {
		if err := device.Stop(); err != nil {
			log.Printf("Microphone stop: %v", err)
		}
		device.Uninit()
	}
	return c.malgoCtx.Uninit()
}

// decodeFloat32 reinterprets little-endian float32 capture bytes.
func decodeFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
