package model

import "time"

// Styling is a layout hint for a defer button.
type Styling string

const (
	StyleTomorrow Styling = "tomorrow"
	StyleMinutes  Styling = "minutes"
	StyleHours    Styling = "hours"
	StyleNextDay  Styling = "next-day"
)

// DeferButton is one rung of the "defer to" ladder.
type DeferButton struct {
	Text    string        // ladder label, e.g. "15 min"
	Offset  time.Duration // from now
	Styling Styling
	// Value is what the button shows: a clock time, or "N hrs" once past midnight.
	Value    string
	At       time.Time
	Disabled bool
	Count    int // tasks becoming due in this button's window
	Priority int // max priority among them, 0 when none
}
