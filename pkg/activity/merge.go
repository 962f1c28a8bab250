// Package activity reconciles locally recorded completions with the server's
// completed-task history.
package activity

import (
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
)

// Merge folds incoming entries into existing and returns the result. An incoming
// entry matches an existing one for the same task within the same minute when
// either side is temporary, and within the same millisecond otherwise.
//
// A matched temporary entry is replaced by a confirmed one. A confirmed entry
// matching a confirmed one is kept only when its exact millisecond is not already
// held. Everything else that matches is a duplicate and is dropped.
func Merge(existing, incoming []model.TaskActivity) []model.TaskActivity {
	out := make([]model.TaskActivity, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	for _, in := range incoming {
		idx := -1
		for i, ex := range out {
			if ex.TaskID == in.TaskID && sameInstant(ex, in) {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			out = append(out, in)
		case out[idx].IsTemporary() && in.IsConfirmed():
			out[idx] = in
		case out[idx].IsConfirmed() && in.IsConfirmed() && !holdsExact(out, in):
			out = append(out, in)
		}
	}
	return out
}

func sameInstant(a, b model.TaskActivity) bool {
	if a.IsTemporary() || b.IsTemporary() {
		return a.Date.Truncate(time.Minute).Equal(b.Date.Truncate(time.Minute))
	}
	return a.Date.Truncate(time.Millisecond).Equal(b.Date.Truncate(time.Millisecond))
}

func holdsExact(entries []model.TaskActivity, in model.TaskActivity) bool {
	ms := in.Date.UnixMilli()
	for _, ex := range entries {
		if ex.TaskID == in.TaskID && ex.Date.UnixMilli() == ms {
			return true
		}
	}
	return false
}
