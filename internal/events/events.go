// Package events loads the static events list shown on the site and keeps
// only upcoming entries.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
)

// Key holds the decorated upcoming events.
var Key = pipeline.NewKey[[]Event]("events")

// Event is one record of the events file. Fields other than date are
// passed through to templates untouched.
type Event map[string]any

// Date returns the parsed date of e. Dates without a zone are read in loc.
func (e Event) Date(loc *time.Location) (time.Time, bool) {
	if s, ok := e["date"].(string); ok {
		return fileset.ParseDateIn(s, loc)
	}
	return fileset.Meta(e).Time("date")
}

// Parse decodes a JSON array of event records.
func Parse(data []byte) ([]Event, error) {
	var list []Event
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return list, nil
}

// Upcoming returns the events dated strictly after now, each copied and
// decorated with "day" (day of month, no padding) and "month" (three-letter
// abbreviation). Undated events are dropped. Dates without a zone are
// taken in now's location, so time.Now() compares them in local time.
func Upcoming(list []Event, now time.Time) []Event {
	out := make([]Event, 0, len(list))
	for _, e := range list {
		d, ok := e.Date(now.Location())
		if !ok || !d.After(now) {
			continue
		}
		decorated := make(Event, len(e)+2)
		for k, v := range e {
			decorated[k] = v
		}
		d = d.In(now.Location())
		decorated["day"] = strconv.Itoa(d.Day())
		decorated["month"] = d.Format("Jan")
		out = append(out, decorated)
	}
	return out
}

// Load reads the events file and filters it against now. A missing file
// yields no events.
func Load(path string, now time.Time) ([]Event, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Upcoming(list, now), nil
}

// Stage loads the events once per run and stores them under Key.
func Stage(path string, clock func() time.Time) pipeline.Stage {
	if clock == nil {
		clock = time.Now
	}
	return pipeline.Func("events", nil, []string{Key.Name()}, func(_ context.Context, _ *fileset.Set, pc *pipeline.Context) error {
		list, err := Load(path, clock())
		if err != nil {
			return err
		}
		if list == nil {
			list = []Event{}
		}
		pipeline.Set(pc, Key, list)
		return nil
	})
}
