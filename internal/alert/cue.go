// Package alert drives the audible alarm from classified drip statuses.
package alert

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

var ErrCueClosed = errors.New("cue is closed")

// Cue is a looping alarm sound. Loop starts playback from the beginning,
// Stop halts it and rewinds, Close releases the underlying device.
type Cue interface {
	Loop() error
	Stop() error
	Close() error
}

// SilentCue is used when no audio output is available.
type SilentCue struct{}

func (SilentCue) Loop() error  { return nil }
func (SilentCue) Stop() error  { return nil }
func (SilentCue) Close() error { return nil }

// Tone is one step of an alarm pattern.
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Gap       time.Duration
}

func (t Tone) Validate() error {
	if t.Frequency <= 0 {
		return fmt.Errorf("tone frequency must be positive: %v", t.Frequency)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("tone duration must be positive: %s", t.Duration)
	}
	if t.Gap < 0 {
		return fmt.Errorf("tone gap must not be negative: %s", t.Gap)
	}

	return nil
}

// DefaultTones is a two-step falling alarm.
func DefaultTones() []Tone {
	return []Tone{
		{Frequency: 880, Duration: 250 * time.Millisecond, Gap: 100 * time.Millisecond},
		{Frequency: 660, Duration: 250 * time.Millisecond, Gap: 600 * time.Millisecond},
	}
}

// BeepFunc plays a single tone, blocking for about its duration.
type BeepFunc func(freq float64, durationMs int) error

// ToneCue loops a tone pattern on the PC speaker or sound card.
type ToneCue struct {
	tones  []Tone
	beep   BeepFunc
	logger *slog.Logger

	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	position int
	closed   bool
	failed   bool
}

func NewToneCue(tones []Tone, beep BeepFunc, logger *slog.Logger) (*ToneCue, error) {
	if len(tones) == 0 {
		return nil, errors.New("tone pattern is empty")
	}
	for i, tone := range tones {
		if err := tone.Validate(); err != nil {
			return nil, fmt.Errorf("tone %d: %w", i, err)
		}
	}
	if beep == nil {
		beep = beeep.Beep
	}
	if logger == nil {
		logger = slog.Default().With("component", "alert.cue")
	}

	return &ToneCue{
		tones:  append([]Tone(nil), tones...),
		beep:   beep,
		logger: logger,
	}, nil
}

func (c *ToneCue) Loop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCueClosed
	}
	if c.stop != nil {
		return nil
	}
	c.position = 0
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.play(c.stop, c.done)

	return nil
}

func (c *ToneCue) Stop() error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done

	c.mu.Lock()
	c.position = 0
	c.mu.Unlock()

	return nil
}

func (c *ToneCue) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

// Position returns the index of the tone that plays next.
func (c *ToneCue) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.position
}

// Playing reports whether the loop goroutine is running.
func (c *ToneCue) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stop != nil
}

func (c *ToneCue) play(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		c.mu.Lock()
		tone := c.tones[c.position]
		failed := c.failed
		c.mu.Unlock()

		wait := tone.Gap
		if failed {
			wait += tone.Duration
		} else if err := c.beep(tone.Frequency, int(tone.Duration/time.Millisecond)); err != nil {
			c.logger.Warn("tone playback failed, alarm continues silently", "error", err)
			c.mu.Lock()
			c.failed = true
			c.mu.Unlock()
			wait += tone.Duration
		}

		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()

			return
		case <-timer.C:
		}

		c.mu.Lock()
		c.position = (c.position + 1) % len(c.tones)
		c.mu.Unlock()
	}
}

// CueOptions selects and configures the alarm cue.
type CueOptions struct {
	Sound bool
	Tones []Tone
	Beep  BeepFunc
}

// OpenCue acquires the alarm cue. It never fails: a disabled or broken
// configuration yields a SilentCue.
func OpenCue(opts CueOptions, logger *slog.Logger) Cue {
	if logger == nil {
		logger = slog.Default().With("component", "alert.cue")
	}
	if !opts.Sound {
		logger.Info("alarm sound disabled")

		return SilentCue{}
	}

	tones := opts.Tones
	if len(tones) == 0 {
		tones = DefaultTones()
	}
	cue, err := NewToneCue(tones, opts.Beep, logger)
	if err != nil {
		logger.Warn("alarm sound unavailable, running silent", "error", err)

		return SilentCue{}
	}
	logger.Debug("alarm cue ready", "tones", len(tones))

	return cue
}
