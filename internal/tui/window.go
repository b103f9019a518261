package tui

// Window tracks which cards are on screen. The loader sentinel sits after
// the last card, so it is visible once the final card is inside the window.
type Window struct {
	cursor int
	offset int
	size   int
}

// NewWindow creates a window showing size cards.
func NewWindow(size int) Window {
	w := Window{}
	w.SetSize(size)
	return w
}

// SetSize sets how many cards fit on screen (at least one).
func (w *Window) SetSize(size int) {
	if size < 1 {
		size = 1
	}
	w.size = size
	w.follow()
}

// Size returns how many cards fit on screen.
func (w Window) Size() int { return w.size }

// Cursor returns the index of the selected card.
func (w Window) Cursor() int { return w.cursor }

// Reset moves back to the first card.
func (w *Window) Reset() {
	w.cursor = 0
	w.offset = 0
}

// Move shifts the cursor by delta, clamped to [0, total).
func (w *Window) Move(delta, total int) {
	w.cursor += delta
	w.clamp(total)
	w.follow()
}

// MoveTo places the cursor at index, clamped to [0, total).
func (w *Window) MoveTo(index, total int) {
	w.cursor = index
	w.clamp(total)
	w.follow()
}

// Range returns the half-open index range of visible cards.
func (w Window) Range(total int) (start, end int) {
	start = w.offset
	if start > total {
		start = total
	}
	end = start + w.size
	if end > total {
		end = total
	}
	return start, end
}

// SentinelVisible reports whether the loader row after the last card is on
// screen. It is always visible when there are no cards.
func (w Window) SentinelVisible(total int) bool {
	_, end := w.Range(total)
	return end >= total
}

func (w *Window) clamp(total int) {
	if w.cursor >= total {
		w.cursor = total - 1
	}
	if w.cursor < 0 {
		w.cursor = 0
	}
}

// follow scrolls so the cursor stays inside the window.
func (w *Window) follow() {
	if w.cursor < w.offset {
		w.offset = w.cursor
	}
	if w.cursor >= w.offset+w.size {
		w.offset = w.cursor - w.size + 1
	}
}
