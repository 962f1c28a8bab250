// Package timeparse pulls a time of day out of free-text due descriptions.
package timeparse

import (
	"strings"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Two probe instants with different clocks. A phrase carries a time of day only
// if parsing it against both lands on the same clock.
var (
	probeA = time.Date(2001, time.February, 3, 1, 7, 0, 0, time.UTC)
	probeB = time.Date(2001, time.February, 3, 13, 41, 0, 0, time.UTC)
)

// Extractor wraps a natural-language date parser.
type Extractor struct {
	parser *when.Parser
}

// New returns an Extractor with the English and common rule sets.
func New() *Extractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Extractor{parser: w}
}

// Extract returns the time of day mentioned in text, if any.
func (e *Extractor) Extract(text string) (model.Clock, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Clock{}, false
	}
	a, ok := e.parse(text, probeA)
	if !ok {
		return model.Clock{}, false
	}
	b, ok := e.parse(text, probeB)
	if !ok {
		return model.Clock{}, false
	}
	if a.Hour() != b.Hour() || a.Minute() != b.Minute() {
		return model.Clock{}, false
	}
	return model.Clock{Hour: a.Hour(), Minute: a.Minute()}, true
}

func (e *Extractor) parse(text string, base time.Time) (time.Time, bool) {
	r, err := e.parser.Parse(text, base)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}

// Project places the time of day found in text onto the calendar day of base,
// with seconds zeroed. A zero base means now.
func (e *Extractor) Project(text string, base time.Time) (string, time.Time, bool) {
	clock, ok := e.Extract(text)
	if !ok {
		return "", time.Time{}, false
	}
	if base.IsZero() {
		base = time.Now()
	}
	at := clock.On(base)
	return FormatClock(at), at, true
}

// FormatClock renders "6 AM" on the hour and "6:30 AM" otherwise.
func FormatClock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3 PM")
	}
	return t.Format("3:04 PM")
}
