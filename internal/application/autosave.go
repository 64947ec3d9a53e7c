package application

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultAutosaveDelay is the quiet period before pending changes are saved
const DefaultAutosaveDelay = 800 * time.Millisecond

// Saver persists pending changes
type Saver interface {
	Save() error
}

// Autosaver debounces saves: every Touch restarts a single-shot timer and the
// save happens once the operator pauses
type Autosaver struct {
	mu      sync.Mutex
	saver   Saver
	delay   time.Duration
	logger  *slog.Logger
	timer   *time.Timer
	gen     int
	stopped bool
	onSave  func(error)
}

// NewAutosaver creates an autosaver. A non-positive delay uses DefaultAutosaveDelay.
func NewAutosaver(saver Saver, delay time.Duration, logger *slog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{saver: saver, delay: delay, logger: logger}
}

// OnSave registers a callback invoked after every timer-driven save
func (a *Autosaver) OnSave(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSave = fn
}

// Touch schedules a save after the debounce delay
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Autosaver) fire(gen int) {
	a.mu.Lock()
	// a newer Touch, Flush or Stop superseded this timer
	if a.stopped || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	onSave := a.onSave
	a.mu.Unlock()

	err := a.saver.Save()
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
	} else {
		a.logger.Debug("autosaved")
	}
	if onSave != nil {
		onSave(err)
	}
}

// Pending reports whether a save is scheduled
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}

// Flush cancels any scheduled save and saves immediately
func (a *Autosaver) Flush() error {
	a.mu.Lock()
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	return a.saver.Save()
}

// Stop cancels any scheduled save; later Touch calls are ignored
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
