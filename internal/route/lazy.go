package route

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Loader produces a component on demand.
type Loader[V any] func(ctx context.Context) (V, error)

// Lazy defers a Loader until the first Load. A successful result is cached
// for the life of the process; a failed load is retried on the next call.
// Concurrent first loads share one call.
type Lazy[V any] struct {
	name string
	load Loader[V]

	group singleflight.Group

	mu     sync.RWMutex
	loaded bool
	value  V
}

// NewLazy wraps load. name labels the load span.
func NewLazy[V any](name string, load Loader[V]) *Lazy[V] {
	return &Lazy[V]{name: name, load: load}
}

// Loaded reports whether the component has been resolved.
func (l *Lazy[V]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Load returns the component, running the loader if needed. If ctx ends
// before the shared load completes, Load returns ctx.Err() and the load keeps
// running for the remaining callers.
func (l *Lazy[V]) Load(ctx context.Context) (V, error) {
	l.mu.RLock()
	if l.loaded {
		v := l.value
		l.mu.RUnlock()
		return v, nil
	}
	l.mu.RUnlock()

	ch := l.group.DoChan("load", func() (any, error) {
		v, err := l.run(context.WithoutCancel(ctx))
		return v, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (l *Lazy[V]) run(ctx context.Context) (V, error) {
	l.mu.RLock()
	if l.loaded {
		v := l.value
		l.mu.RUnlock()
		return v, nil
	}
	l.mu.RUnlock()

	ctx, span := otel.Tracer("guffcircle/route").Start(ctx, "route.load")
	span.SetAttributes(attribute.String("route.component", l.name))
	defer span.End()

	v, err := l.load(ctx)
	if err != nil {
		span.RecordError(err)
		return v, err
	}

	l.mu.Lock()
	l.value = v
	l.loaded = true
	l.mu.Unlock()
	return v, nil
}
