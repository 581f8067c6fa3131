// Package layout owns the dashboard widget layout: its order, per-widget
// visibility, and its persistence in durable key/value storage.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ilyklain/khlan-saas/internal/model"
)

// DefaultStorageKey is the key the layout is stored under unless configured.
const DefaultStorageKey = "khlan-widget-order"

// Storage is durable client-local key/value storage.
// GetItem reports ok == false when the key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// DefaultWidgets returns the fixed default layout.
func DefaultWidgets() model.Layout {
	return model.Layout{
		{ID: "kpi", Label: "KPI Cards", Visible: true},
		{ID: "chart", Label: "Revenue Chart", Visible: true},
		{ID: "activity", Label: "Activity Feed", Visible: true},
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(e *Engine) { e.key = key }
}

// WithDefaults overrides the catalog of known widgets and their default
// order and visibility.
func WithDefaults(l model.Layout) Option {
	return func(e *Engine) { e.defaults = l.Clone() }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine holds the authoritative layout. All methods are safe for
// concurrent use; mutations are applied, persisted and published one at a
// time.
type Engine struct {
	storage  Storage
	key      string
	defaults model.Layout
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	current model.Layout

	subMu  sync.Mutex
	subs   map[int]func(model.Event)
	nextID int

	// pubMu keeps observer delivery in mutation order.
	pubMu sync.Mutex
}

// New creates an Engine holding the default layout. Call Load to restore
// the persisted one.
func New(storage Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		key:      DefaultStorageKey,
		defaults: DefaultWidgets(),
		log:      zap.NewNop(),
		now:      time.Now,
		subs:     make(map[int]func(model.Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(zap.String("component", "layout"))
	e.current = e.defaults.Clone()
	return e
}

// Key returns the storage key the layout is persisted under.
func (e *Engine) Key() string { return e.key }

// Defaults returns a copy of the default layout.
func (e *Engine) Defaults() model.Layout { return e.defaults.Clone() }

// Current returns a copy of the current layout.
func (e *Engine) Current() model.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Clone()
}

// Load restores the persisted layout. An absent or invalid stored value
// yields the default layout; an invalid value is also removed from storage
// so it is not read again. Load never fails.
func (e *Engine) Load(ctx context.Context) model.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.current = e.defaults.Clone()

	raw, ok, err := e.storage.GetItem(ctx, e.key)
	if err != nil {
		e.log.Warn("read stored layout", zap.Error(err))
		return e.current.Clone()
	}
	if !ok {
		return e.current.Clone()
	}

	l, err := Decode(raw, e.defaults)
	if err != nil {
		e.log.Warn("discarding stored layout", zap.Error(err))
		if err := e.storage.RemoveItem(ctx, e.key); err != nil {
			e.log.Warn("remove stored layout", zap.Error(err))
		}
		return e.current.Clone()
	}
	e.current = l
	return e.current.Clone()
}

// Reorder moves movedID to the position currently held by targetID.
// It is a no-op when the ids are equal, when targetID is empty (drag
// released over no target), or when either id is unknown.
func (e *Engine) Reorder(ctx context.Context, movedID, targetID string) (model.Layout, error) {
	return e.mutate(ctx, func(cur model.Layout) (model.Layout, model.Event, bool) {
		if targetID == "" || movedID == targetID {
			return nil, model.Event{}, false
		}
		from, to := cur.Index(movedID), cur.Index(targetID)
		if from < 0 || to < 0 {
			return nil, model.Event{}, false
		}
		return Move(cur, from, to), model.Event{Kind: model.EventReorder, Message: "Widget order updated"}, true
	})
}

// ToggleVisibility flips the visible flag of id. Unknown ids are ignored.
func (e *Engine) ToggleVisibility(ctx context.Context, id string) (model.Layout, error) {
	return e.mutate(ctx, func(cur model.Layout) (model.Layout, model.Event, bool) {
		i := cur.Index(id)
		if i < 0 {
			return nil, model.Event{}, false
		}
		next := cur.Clone()
		next[i].Visible = !next[i].Visible
		msg := next[i].Label + " hidden"
		if next[i].Visible {
			msg = next[i].Label + " shown"
		}
		return next, model.Event{Kind: model.EventToggle, Message: msg}, true
	})
}

// Reset restores the default layout.
func (e *Engine) Reset(ctx context.Context) (model.Layout, error) {
	return e.mutate(ctx, func(model.Layout) (model.Layout, model.Event, bool) {
		return e.defaults.Clone(), model.Event{Kind: model.EventReset, Message: "Layout reset to default"}, true
	})
}

// Subscribe registers fn to receive every Event, in mutation order. fn must
// not call the mutating methods of e. The returned function removes the
// subscription.
func (e *Engine) Subscribe(fn func(model.Event)) (cancel func()) {
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
		})
	}
}

// mutate applies fn to the current layout. A changed layout is kept in
// memory even if the storage write fails; the write error is returned.
func (e *Engine) mutate(ctx context.Context, fn func(model.Layout) (model.Layout, model.Event, bool)) (model.Layout, error) {
	e.mu.Lock()
	next, ev, changed := fn(e.current)
	if !changed {
		out := e.current.Clone()
		e.mu.Unlock()
		return out, nil
	}
	e.current = next
	err := e.persist(ctx, next)
	ev.Layout = next.Clone()
	ev.Timestamp = e.now().Unix()

	// Taking pubMu before releasing mu keeps delivery in mutation order
	// without holding the layout lock while observers run.
	e.pubMu.Lock()
	e.mu.Unlock()
	e.publish(ev)
	e.pubMu.Unlock()

	if err != nil {
		e.log.Error("persist layout", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
	return next.Clone(), err
}

func (e *Engine) persist(ctx context.Context, l model.Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := e.storage.SetItem(ctx, e.key, string(data)); err != nil {
		return fmt.Errorf("store layout: %w", err)
	}
	return nil
}

func (e *Engine) publish(ev model.Event) {
	e.subMu.Lock()
	fns := make([]func(model.Event), 0, len(e.subs))
	for _, id := range slices.Sorted(maps.Keys(e.subs)) {
		fns = append(fns, e.subs[id])
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
