package tui

import "time"

// Typing tracks one player's input against the race text
type Typing struct {
	target     []rune
	typed      []rune
	keystrokes int
	mistakes   int
	started    time.Time
}

func NewTyping(text string) *Typing {
	return &Typing{target: []rune(text)}
}

// Type records one keystroke. Input past the end of the text is ignored.
func (t *Typing) Type(r rune, now time.Time) {
	if len(t.typed) >= len(t.target) {
		return
	}
	if t.started.IsZero() {
		t.started = now
	}
	t.keystrokes++
	if r != t.target[len(t.typed)] {
		t.mistakes++
	}
	t.typed = append(t.typed, r)
}

func (t *Typing) Backspace() {
	if len(t.typed) > 0 {
		t.typed = t.typed[:len(t.typed)-1]
	}
}

// CorrectPrefix is the number of leading runes typed correctly
func (t *Typing) CorrectPrefix() int {
	n := 0
	for n < len(t.typed) && t.typed[n] == t.target[n] {
		n++
	}
	return n
}

// Progress is the share of the text typed correctly, 0..100
func (t *Typing) Progress() float64 {
	if len(t.target) == 0 {
		return 0
	}
	return float64(t.CorrectPrefix()) / float64(len(t.target)) * 100
}

// WPM counts five correct characters as one word
func (t *Typing) WPM(now time.Time) int {
	if t.started.IsZero() {
		return 0
	}
	minutes := now.Sub(t.started).Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(float64(t.CorrectPrefix()) / 5 / minutes)
}

// Accuracy is the share of keystrokes that matched, 100 before any input
func (t *Typing) Accuracy() float64 {
	if t.keystrokes == 0 {
		return 100
	}
	return float64(t.keystrokes-t.mistakes) / float64(t.keystrokes) * 100
}

func (t *Typing) Done() bool {
	return len(t.target) > 0 && t.CorrectPrefix() == len(t.target)
}
