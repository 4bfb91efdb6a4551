package alert

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type beepLog struct {
	mu    sync.Mutex
	freqs []float64
	err   error
}

func (b *beepLog) beep(freq float64, _ int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freqs = append(b.freqs, freq)

	return b.err
}

func (b *beepLog) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.freqs)
}

func (b *beepLog) snapshot() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]float64(nil), b.freqs...)
}

func shortTones() []Tone {
	return []Tone{
		{Frequency: 440, Duration: time.Millisecond, Gap: time.Millisecond},
		{Frequency: 550, Duration: time.Millisecond, Gap: time.Millisecond},
		{Frequency: 660, Duration: time.Millisecond, Gap: time.Millisecond},
	}
}

func TestNewToneCueValidatesPattern(t *testing.T) {
	_, err := NewToneCue(nil, nil, nil)
	require.Error(t, err)

	_, err = NewToneCue([]Tone{{Frequency: 0, Duration: time.Second}}, nil, nil)
	require.Error(t, err)

	_, err = NewToneCue([]Tone{{Frequency: 440, Duration: time.Second, Gap: -time.Second}}, nil, nil)
	require.Error(t, err)
}

func TestToneCueLoopsFromStartAndRewinds(t *testing.T) {
	log := &beepLog{}
	cue, err := NewToneCue(shortTones(), log.beep, nil)
	require.NoError(t, err)

	require.NoError(t, cue.Loop())
	require.NoError(t, cue.Loop())
	assert.True(t, cue.Playing())
	require.Eventually(t, func() bool { return log.count() >= 4 }, time.Second, time.Millisecond)

	require.NoError(t, cue.Stop())
	assert.False(t, cue.Playing())
	assert.Equal(t, 0, cue.Position())

	played := log.snapshot()
	assert.Equal(t, []float64{440, 550, 660, 440}, played[:4])

	restart := len(played)
	require.NoError(t, cue.Loop())
	require.Eventually(t, func() bool { return log.count() > restart }, time.Second, time.Millisecond)
	require.NoError(t, cue.Stop())
	assert.Equal(t, 440.0, log.snapshot()[restart])
}

func TestToneCueStopWhenIdle(t *testing.T) {
	cue, err := NewToneCue(shortTones(), (&beepLog{}).beep, nil)
	require.NoError(t, err)
	assert.NoError(t, cue.Stop())
}

func TestToneCueKeepsLoopingSilentlyAfterBeepFailure(t *testing.T) {
	log := &beepLog{err: errors.New("no speaker")}
	cue, err := NewToneCue(shortTones(), log.beep, nil)
	require.NoError(t, err)

	require.NoError(t, cue.Loop())
	require.Eventually(t, func() bool { return cue.Position() > 0 }, time.Second, time.Millisecond)
	require.NoError(t, cue.Stop())
	assert.Equal(t, 1, log.count())
}

func TestToneCueClose(t *testing.T) {
	cue, err := NewToneCue(shortTones(), (&beepLog{}).beep, nil)
	require.NoError(t, err)

	require.NoError(t, cue.Loop())
	require.NoError(t, cue.Close())
	assert.False(t, cue.Playing())
	assert.ErrorIs(t, cue.Loop(), ErrCueClosed)
}

func TestOpenCue(t *testing.T) {
	assert.IsType(t, SilentCue{}, OpenCue(CueOptions{Sound: false}, nil))
	assert.IsType(t, SilentCue{}, OpenCue(CueOptions{Sound: true, Tones: []Tone{{Frequency: -1}}}, nil))

	cue := OpenCue(CueOptions{Sound: true, Beep: (&beepLog{}).beep}, nil)
	tone, ok := cue.(*ToneCue)
	require.True(t, ok)
	assert.Len(t, tone.tones, len(DefaultTones()))
}
