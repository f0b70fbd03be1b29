package queue

import (
	"log/slog"
	"sort"

	"github.com/hibiken/asynq"
)

// HandlersRegistry maps task types to worker handlers.
type HandlersRegistry struct {
	mux   *asynq.ServeMux
	types map[string]bool
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux:   asynq.NewServeMux(),
		types: make(map[string]bool),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
	r.types[taskType] = true
	slog.Debug("registered task handler", "type", taskType)
}

// Types returns the registered task types in sorted order.
func (r *HandlersRegistry) Types() []string {
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
