// Package audio synthesizes and plays the short chime that signals a
// re-enabled control. The tone is rendered once into a beep.Buffer so every
// playback is a cheap streamer over the same samples.
package audio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// Default chime parameters.
const (
	DefaultSampleRate beep.SampleRate = 44100
	DefaultFrequency                  = 880.0
	DefaultLength                     = 150 * time.Millisecond
)

// Chime plays a pre-rendered tone on the system speaker.
type Chime struct {
	buffer *beep.Buffer
	logger *log.Logger

	mu    sync.Mutex
	ready bool
}

// NewChime renders a sine tone of the given frequency and length.
func NewChime(sr beep.SampleRate, freq float64, length time.Duration, logger *log.Logger) (*Chime, error) {
	if logger == nil {
		logger = log.Default()
	}
	tone, err := generators.SineTone(sr, freq)
	if err != nil {
		return nil, fmt.Errorf("chime tone: %w", err)
	}

	buffer := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buffer.Append(beep.Take(sr.N(length), tone))
	return &Chime{buffer: buffer, logger: logger}, nil
}

// Len returns the number of rendered samples.
func (c *Chime) Len() int {
	return c.buffer.Len()
}

// Format returns the sample format of the rendered tone.
func (c *Chime) Format() beep.Format {
	return c.buffer.Format()
}

// Init opens the speaker. Without a working audio device Play only logs.
func (c *Chime) Init() error {
	sr := c.buffer.Format().SampleRate
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("initialize speaker: %w", err)
	}
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	return nil
}

// Ready reports whether the speaker was initialized.
func (c *Chime) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Play queues the chime on the speaker and returns immediately.
func (c *Chime) Play() {
	if !c.Ready() {
		c.logger.Printf("Chime skipped: audio disabled")
		return
	}
	speaker.Play(c.buffer.Streamer(0, c.buffer.Len()))
}
