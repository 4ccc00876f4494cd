package contract

import (
	"context"
	"reflect"
)

// Worker is a long-running task driven by its context. Workers do not
// protect themselves; the supervisor handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerName derives a display name from the worker's type, so workers need
// no naming method of their own for logging and supervision.
func WorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
