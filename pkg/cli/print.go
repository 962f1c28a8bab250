package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/timeparse"
)

func contextName(contexts []model.Context, id string) string {
	for _, c := range contexts {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func describeDue(engine *ordering.Engine, t *model.Task, loc *time.Location) string {
	info, ok := engine.Resolve(t, loc)
	if !ok {
		return ""
	}
	day := info.At.Format("Mon Jan 2")
	if ordering.SameDay(info.At, engine.Now(), loc) {
		day = "today"
	}
	if !info.HasClock {
		return day
	}
	at := info.At
	if info.AllDay {
		at = info.Clock.On(info.At)
	}
	return day + " " + timeparse.FormatClock(at)
}

func printTask(w io.Writer, engine *ordering.Engine, t *model.Task, contexts []model.Context, loc *time.Location) {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", t.ID), t.Content)
	if name := contextName(contexts, t.ContextID); name != "" {
		parts = append(parts, "#"+name)
	}
	if t.Priority > 1 {
		parts = append(parts, fmt.Sprintf("p%d", 5-t.Priority))
	}
	if due := describeDue(engine, t, loc); due != "" {
		parts = append(parts, "("+due+")")
	}
	if t.CloseTiming {
		parts = append(parts, "*")
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}
