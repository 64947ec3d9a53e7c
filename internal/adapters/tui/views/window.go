package views

import "fmt"

// ListWindow tracks a cursor over a list and the rows visible around it.
// The window scrolls only as far as needed to keep the cursor in view.
type ListWindow struct {
	height int
	offset int
	cursor int
	n      int
}

// NewListWindow creates a window showing height rows
func NewListWindow(height int) *ListWindow {
	return &ListWindow{height: max(1, height)}
}

// SetLen sets the list length, clamping the cursor
func (w *ListWindow) SetLen(n int) {
	w.n = max(0, n)
	w.SetCursor(w.cursor)
}

// Len returns the list length
func (w *ListWindow) Len() int {
	return w.n
}

// Cursor returns the selected row
func (w *ListWindow) Cursor() int {
	return w.cursor
}

// SetCursor selects row i, clamped to the list
func (w *ListWindow) SetCursor(i int) {
	w.cursor = max(0, min(i, w.n-1))
	w.follow()
}

// Move moves the cursor by delta rows and reports whether it moved
func (w *ListWindow) Move(delta int) bool {
	before := w.cursor
	w.SetCursor(w.cursor + delta)
	return w.cursor != before
}

// PageDown moves the cursor one window down
func (w *ListWindow) PageDown() bool {
	return w.Move(w.height)
}

// PageUp moves the cursor one window up
func (w *ListWindow) PageUp() bool {
	return w.Move(-w.height)
}

// SetHeight resizes the window, keeping the cursor visible
func (w *ListWindow) SetHeight(h int) {
	if h <= 0 {
		return
	}
	w.height = h
	w.follow()
}

// Range returns the visible rows as a half-open interval
func (w *ListWindow) Range() (start, end int) {
	return w.offset, min(w.offset+w.height, w.n)
}

// Scrollable reports whether the list is longer than the window
func (w *ListWindow) Scrollable() bool {
	return w.n > w.height
}

// Position describes the cursor as "i/n", 1-based
func (w *ListWindow) Position() string {
	if w.n == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", w.cursor+1, w.n)
}

func (w *ListWindow) follow() {
	if w.cursor < w.offset {
		w.offset = w.cursor
	}
	if w.cursor >= w.offset+w.height {
		w.offset = w.cursor - w.height + 1
	}
	w.offset = max(0, min(w.offset, w.n-w.height))
}
