// Package ordering derives which tasks are due and puts them in presentation order.
package ordering

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
)

// CloseTimingWindow is how near two agenda items must be to be flagged.
const CloseTimingWindow = 10 * time.Minute

// Info is the due data derived from a task's due block.
type Info struct {
	At       time.Time
	AllDay   bool
	Clock    model.Clock
	HasClock bool
}

// Options controls a call to Order.
type Options struct {
	// Location enables the due-ness filter. Nil orders the input as given.
	Location *time.Location
	// Reverse orders a look-ahead list, due before the end of tomorrow.
	Reverse bool
}

// Engine orders tasks. Derived due data is memoized per task id, keyed by the
// due block it was derived from, so tasks themselves are never written to.
type Engine struct {
	extractor *timeparse.Extractor
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	key  string
	info Info
}

// New creates an Engine. A nil now uses time.Now.
func New(extractor *timeparse.Extractor, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		extractor: extractor,
		now:       now,
		cache:     make(map[string]cached),
	}
}

// Now returns the engine's notion of the current instant.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Extractor returns the time extractor the engine resolves descriptions with.
func (e *Engine) Extractor() *timeparse.Extractor {
	return e.extractor
}

// Resolve derives the due instant of t in loc. It reports false when t has no due block
// or the due block cannot be read.
func (e *Engine) Resolve(t *model.Task, loc *time.Location) (Info, bool) {
	if t == nil || t.Due == nil {
		return Info{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	key := t.DueKey() + "@" + loc.String()

	e.mu.Lock()
	c, ok := e.cache[t.ID]
	e.mu.Unlock()
	if ok && c.key == key {
		return c.info, true
	}

	info, ok := e.resolve(t.Due, loc)
	if !ok {
		return Info{}, false
	}
	// A changed due block replaces the task's entry.
	e.mu.Lock()
	e.cache[t.ID] = cached{key: key, info: info}
	e.mu.Unlock()
	return info, true
}

func (e *Engine) resolve(due *model.Due, loc *time.Location) (Info, bool) {
	var info Info
	switch due.Kind {
	case model.DueDateTime:
		at, err := time.Parse(time.RFC3339, due.Datetime)
		if err != nil {
			at, err = time.ParseInLocation(model.FloatingLayout, due.Datetime, loc)
			if err != nil {
				return Info{}, false
			}
		}
		info.At = at.In(loc)
		info.Clock = model.Clock{Hour: info.At.Hour(), Minute: info.At.Minute()}
		info.HasClock = true
	default:
		at, err := time.ParseInLocation(model.DateLayout, due.Date, loc)
		if err != nil {
			return Info{}, false
		}
		info.At = at
		info.AllDay = true
	}
	if e.extractor != nil {
		if clock, ok := e.extractor.Extract(due.String); ok {
			info.Clock = clock
			info.HasClock = true
		}
	}
	return info, true
}

// Forget drops memoized due data, e.g. after a logout.
func (e *Engine) Forget() {
	e.mu.Lock()
	e.cache = make(map[string]cached)
	e.mu.Unlock()
}

// Order filters tasks to those currently due and sorts them by priority, container
// order and due time. Ties keep their input order.
func (e *Engine) Order(tasks []*model.Task, contexts []model.Context, opts Options) []*model.Task {
	out := make([]*model.Task, 0, len(tasks))
	if opts.Location != nil {
		ref := e.now().In(opts.Location)
		if opts.Reverse {
			ref = EndOfDay(ref.AddDate(0, 0, 1))
		}
		for _, t := range tasks {
			info, ok := e.Resolve(t, opts.Location)
			if ok && info.At.Before(ref) {
				out = append(out, t)
			}
		}
	} else {
		out = append(out, tasks...)
	}

	compare := e.Comparator(contexts, opts.Location)
	if opts.Reverse {
		slices.SortStableFunc(out, func(a, b *model.Task) int { return -compare(a, b) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

// Comparator returns the forward composite ordering for the given containers.
func (e *Engine) Comparator(contexts []model.Context, loc *time.Location) func(a, b *model.Task) int {
	order := make(map[string]int, len(contexts))
	for _, c := range contexts {
		order[c.ID] = c.ChildOrder
	}
	childOrder := func(t *model.Task) int {
		if o, ok := order[t.ContextID]; ok {
			return o
		}
		return math.MaxInt
	}

	return func(a, b *model.Task) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		aHas, bHas := a.ContextID != "", b.ContextID != ""
		if aHas != bHas {
			if aHas {
				return -1
			}
			return 1
		}
		if aHas {
			if c := cmp.Compare(childOrder(a), childOrder(b)); c != 0 {
				return c
			}
		}
		return e.CompareDue(a, b, loc)
	}
}

// CompareDue orders by due instant; tasks without one sort last.
func (e *Engine) CompareDue(a, b *model.Task, loc *time.Location) int {
	ai, aok := e.Resolve(a, loc)
	bi, bok := e.Resolve(b, loc)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return ai.At.Compare(bi.At)
}

// EndOfDay returns the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Millisecond), t.Location())
}

// StartOfDay returns midnight at the start of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
