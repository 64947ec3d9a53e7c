package application_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracewave/internal/application"
)

type countingSaver struct {
	n atomic.Int32
}

func (s *countingSaver) Save() error {
	s.n.Add(1)
	return nil
}

func TestAutosaver_DebouncesBursts(t *testing.T) {
	saver := &countingSaver{}
	a := application.NewAutosaver(saver, 30*time.Millisecond, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	a.OnSave(func(err error) {
		assert.NoError(t, err)
		wg.Done()
	})

	for range 5 {
		a.Touch()
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, a.Pending())

	wg.Wait()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), saver.n.Load())
	assert.False(t, a.Pending())
}

func TestAutosaver_FlushSavesNowAndCancelsTimer(t *testing.T) {
	saver := &countingSaver{}
	a := application.NewAutosaver(saver, 20*time.Millisecond, nil)

	a.Touch()
	require.NoError(t, a.Flush())
	assert.Equal(t, int32(1), saver.n.Load())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), saver.n.Load(), "flushed timer must not fire")
}

func TestAutosaver_StopIgnoresLaterTouches(t *testing.T) {
	saver := &countingSaver{}
	a := application.NewAutosaver(saver, 10*time.Millisecond, nil)

	a.Touch()
	a.Stop()
	a.Touch()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), saver.n.Load())
}

func TestNewAutosaver_DefaultDelay(t *testing.T) {
	saver := &countingSaver{}
	a := application.NewAutosaver(saver, 0, nil)
	a.Touch()
	defer a.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), saver.n.Load())
	assert.Equal(t, 800*time.Millisecond, application.DefaultAutosaveDelay)
}
