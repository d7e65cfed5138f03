package listen

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture reads mono buffers from the default input device
type Capture struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	sampleRate float64
	bufferSize int
	running    bool
	out        chan []float32
}

// NewCapture creates an idle capture; PortAudio is initialized on Start
func NewCapture(sampleRate, bufferSize int) *Capture {
	if bufferSize <= 0 {
		bufferSize = 480
	}
	return &Capture{
		sampleRate: float64(sampleRate),
		bufferSize: bufferSize,
	}
}

// Start opens the input stream and begins delivering buffers
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	buffer := make([]float32, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, c.sampleRate, c.bufferSize, buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.stream = stream
	c.running = true
	c.out = make(chan []float32, 100)

	go c.loop(ctx, stream, buffer, c.out)
	return nil
}

func (c *Capture) loop(ctx context.Context, stream *portaudio.Stream, buffer []float32, out chan<- []float32) {
	defer close(out)
	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			c.mu.Lock()
			running := c.running
			c.mu.Unlock()
			if !running {
				return
			}
			continue
		}

		samples := make([]float32, len(buffer))
		copy(samples, buffer)
		select {
		case out <- samples:
		default:
		}
	}
}

// Output returns the buffer channel of the current recording
func (c *Capture) Output() <-chan []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}

// Stop closes the stream and releases PortAudio
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	c.stream.Stop()
	err := c.stream.Close()
	c.stream = nil
	portaudio.Terminate()
	if err != nil {
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}
