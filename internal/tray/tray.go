// Package tray provides a system tray menu for stretchcam.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	exercises  []string
	current    string
	onToggle   func(enabled bool)
	onExercise func(name string)
	onOpen     func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuProgress  *systray.MenuItem
	menuExercises map[string]*systray.MenuItem
}

// New creates a tray offering the given exercises with current selected.
// Tracking starts enabled.
func New(exercises []string, current string) *Tray {
	return &Tray{
		exercises: exercises,
		current:   current,
		enabled:   true,
	}
}

// OnToggle sets the callback invoked when tracking is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExercise sets the callback invoked when another exercise is picked.
func (t *Tray) OnExercise(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnOpen sets the callback for the dashboard menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback invoked before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("Stretchcam")
	systray.SetTooltip("Stretchcam stretch tracker")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(true), "Pause or resume tracking")
	systray.AddSeparator()

	t.menuProgress = systray.AddMenuItem(progressTitle(0, 0), "Repetitions and points this session")
	t.menuProgress.Disable()
	systray.AddSeparator()

	t.menuExercises = make(map[string]*systray.MenuItem, len(t.exercises))
	for _, name := range t.exercises {
		item := systray.AddMenuItemCheckbox(name, "Track the "+name+" stretch", name == t.current)
		t.menuExercises[name] = item
		go t.watchExercise(name, item)
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Stretchcam")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watchExercise(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.selectExercise(name)
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// selectExercise checks name and unchecks the others, radio style.
func (t *Tray) selectExercise(name string) {
	t.mu.Lock()
	if name == t.current {
		if item := t.menuExercises[name]; item != nil {
			item.Check()
		}
		t.mu.Unlock()
		return
	}
	t.current = name
	for n, item := range t.menuExercises {
		if n == name {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onExercise
	t.mu.Unlock()

	if callback != nil {
		callback(name)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetProgress updates the repetitions and points line.
func (t *Tray) SetProgress(reps, points int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuProgress != nil {
		t.menuProgress.SetTitle(progressTitle(reps, points))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Exercise returns the selected exercise.
func (t *Tray) Exercise() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func progressTitle(reps, points int) string {
	if reps == 1 {
		return fmt.Sprintf("1 rep, %d points", points)
	}
	return fmt.Sprintf("%d reps, %d points", reps, points)
}
