package inference

import "strings"

// DefaultModels are the stock candidate lists, most preferred first.
var DefaultModels = map[Task][]string{
	TaskGrading: {"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	TaskListing: {"gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.0-flash"},
	TaskMarket:  {"gemini-2.5-flash", "gemini-2.0-flash"},
}

// Registry holds the ordered candidate model identifiers per task. It is
// immutable after construction and safe for concurrent use.
type Registry struct {
	models map[Task][]string
}

// NewRegistry copies models into a new Registry. Blank identifiers are dropped.
func NewRegistry(models map[Task][]string) Registry {
	r := Registry{models: make(map[Task][]string, len(models))}
	for task, list := range models {
		var clean []string
		for _, m := range list {
			if m = strings.TrimSpace(m); m != "" {
				clean = append(clean, m)
			}
		}
		r.models[task] = clean
	}
	return r
}

// DefaultRegistry returns a Registry over DefaultModels.
func DefaultRegistry() Registry {
	return NewRegistry(DefaultModels)
}

// Candidates returns a fresh copy of the task's list with preferred, when
// non-empty, moved to the front. The registry itself is never modified.
func (r Registry) Candidates(task Task, preferred string) []string {
	base := r.models[task]
	preferred = strings.TrimSpace(preferred)

	out := make([]string, 0, len(base)+1)
	if preferred != "" {
		out = append(out, preferred)
	}
	for _, m := range base {
		if m != preferred {
			out = append(out, m)
		}
	}
	return out
}

// Tasks returns the configured lists keyed by task name, for display.
func (r Registry) Tasks() map[string][]string {
	out := make(map[string][]string, len(r.models))
	for task := range r.models {
		out[string(task)] = r.Candidates(task, "")
	}
	return out
}
