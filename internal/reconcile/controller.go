// Package reconcile keeps an object cache in step with changes made to the
// store on disk by anyone other than the cache itself, and tells
// subscribers when objects appear or disappear.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/audit"
	"github.com/aidanlsb/moodb/internal/fsdb"
	"github.com/aidanlsb/moodb/internal/objects"
	"github.com/aidanlsb/moodb/internal/paths"
	"github.com/aidanlsb/moodb/internal/report"
)

// EventKind is the kind of a domain event.
type EventKind int

const (
	ObjectAdded EventKind = iota + 1
	ObjectRemoved
)

func (k EventKind) String() string {
	switch k {
	case ObjectAdded:
		return "object-added"
	case ObjectRemoved:
		return "object-removed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// MarshalText renders the kind by name.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event reports that an object entered or left the cache because of an
// external change.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

// Source delivers file changes one at a time until ctx is cancelled.
// *fsdb.Watcher is a Source.
type Source interface {
	Start(ctx context.Context, handle func(fsdb.Change)) error
}

// Config holds the collaborators of a Controller.
type Config struct {
	Cache  *objects.Cache
	Sink   report.Sink   // Default: report.Discard
	Logger *zap.Logger   // Default: no-op
	Audit  *audit.Logger // Optional

	// Failed lists ids whose load already failed, typically during the
	// initial LoadAll. A later change to any of their files retries.
	Failed []string
}

// Controller maps file changes onto cache mutations.
type Controller struct {
	cache  *objects.Cache
	sink   report.Sink
	logger *zap.Logger
	audit  *audit.Logger

	// mu serializes Handle. failed holds ids whose descriptor was seen but
	// could not be loaded; a later change to any of their files retries.
	mu     sync.Mutex
	failed map[string]struct{}

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(Event)
}

// New creates a Controller for cfg.Cache.
func New(cfg Config) (*Controller, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = report.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := make(map[string]struct{}, len(cfg.Failed))
	for _, id := range cfg.Failed {
		if paths.ValidID(id) {
			failed[id] = struct{}{}
		}
	}
	return &Controller{
		cache:  cfg.Cache,
		sink:   sink,
		logger: logger,
		audit:  cfg.Audit,
		failed: failed,
	}, nil
}

// Subscribe registers fn for domain events and returns a function that
// removes it. fn runs on the goroutine that called Handle and must not call
// Handle itself.
func (c *Controller) Subscribe(fn func(Event)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Run feeds every change from src into Handle until ctx is cancelled.
func (c *Controller) Run(ctx context.Context, src Source) error {
	return src.Start(ctx, c.Handle)
}

// Handle applies one file change. Failures are reported to the sink and
// never returned; the cache keeps its last good state.
func (c *Controller) Handle(ch fsdb.Change) {
	kind := paths.KindOf(ch.Path)
	if kind == paths.KindOther {
		return
	}
	id := paths.IDFromPath(ch.Path)
	if !paths.ValidID(id) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("change",
		zap.Stringer("op", ch.Op),
		zap.String("path", ch.Path),
		zap.Stringer("kind", kind))

	switch ch.Op {
	case fsdb.Added, fsdb.Changed:
		c.upsert(id, kind)
	case fsdb.Removed:
		if kind == paths.KindDescriptor {
			c.drop(id)
			return
		}
		// The callable set changed; treat it like an edit.
		c.upsert(id, kind)
	}
}

// upsert refreshes a cached object in place, or loads one the cache does
// not have yet.
func (c *Controller) upsert(id string, kind paths.Kind) {
	if c.cache.Has(id) {
		if err := c.cache.Refresh(id); err != nil {
			c.sink.Report(report.Failure{Op: "refresh", ObjectID: id, File: paths.DescriptorPath(id), Err: err})
			return
		}
		c.logAudit(audit.OpRefreshed, id)
		return
	}

	_, retry := c.failed[id]
	if kind != paths.KindDescriptor && !retry {
		return
	}
	if !c.cache.Load(id) {
		c.failed[id] = struct{}{}
		return
	}
	delete(c.failed, id)
	c.logAudit(audit.OpAdded, id)
	c.emit(Event{Kind: ObjectAdded, ID: id})
}

func (c *Controller) drop(id string) {
	delete(c.failed, id)
	if !c.cache.Forget(id) {
		return
	}
	c.logAudit(audit.OpRemoved, id)
	c.emit(Event{Kind: ObjectRemoved, ID: id})
}

func (c *Controller) emit(ev Event) {
	c.subMu.Lock()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	c.logger.Debug("event", zap.Stringer("kind", ev.Kind), zap.String("objectId", ev.ID))
	for _, s := range subs {
		s.fn(ev)
	}
}

func (c *Controller) logAudit(op, id string) {
	if err := c.audit.LogFS(op, id); err != nil {
		c.sink.Report(report.Failure{Op: "audit", ObjectID: id, Err: err})
	}
}
