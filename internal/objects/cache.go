// Package objects holds the in-memory object cache: every object of the
// world, keyed by ID, kept in step with the files under the store root.
//
// The cache is the source of truth for reads. Mutating calls write through
// to the gateway synchronously and should be treated as blocking.
package objects

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/audit"
	"github.com/aidanlsb/moodb/internal/callable"
	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/paths"
	"github.com/aidanlsb/moodb/internal/report"
)

// Gateway is the durability medium the cache reads from and writes to.
// Paths are relative to the store root ("<id>/<file>").
type Gateway interface {
	ListDirs(rel string) ([]string, error)
	Read(rel string) (string, error)
	Write(rel, text string) error
	Remove(rel string) error
	RemoveDir(rel string) error
}

// Config holds the collaborators of a Cache.
type Config struct {
	Gateway Gateway
	Codec   *callable.Codec // Default: a codec reporting to Sink
	Sink    report.Sink     // Default: report.Discard
	Logger  *zap.Logger     // Default: no-op
	Audit   *audit.Logger   // Optional
}

// Cache is the keyed collection of objects.
//
// Records handed out by the cache are shared: reconciliation updates them in
// place, so a caller holding a *model.Object sees fresh values. Callers must
// not mutate records directly; use SetProperty, RemoveProperty and Save.
type Cache struct {
	gw     Gateway
	codec  *callable.Codec
	sink   report.Sink
	logger *zap.Logger
	audit  *audit.Logger

	mu      sync.RWMutex
	objects map[string]*model.Object
}

// New creates an empty cache.
func New(cfg Config) (*Cache, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	sink := cfg.Sink
	if sink == nil {
		sink = report.Discard
	}
	codec := cfg.Codec
	if codec == nil {
		codec = callable.New(sink)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		gw:      cfg.Gateway,
		codec:   codec,
		sink:    sink,
		logger:  logger,
		audit:   cfg.Audit,
		objects: make(map[string]*model.Object),
	}, nil
}

// LoadAll loads every object directory under the root and returns how many
// loaded. Objects that fail to load are reported and skipped; only a failure
// to list the root is returned.
func (c *Cache) LoadAll() (int, error) {
	ids, err := c.gw.ListDirs("")
	if err != nil {
		return 0, model.IO("list", "", err)
	}
	loaded := 0
	for _, id := range ids {
		if c.Load(id) {
			loaded++
		}
	}
	c.logger.Debug("loaded objects", zap.Int("loaded", loaded), zap.Int("found", len(ids)))
	return loaded, nil
}

// Load reads the object's descriptor and callables and puts the record in
// the cache. On any failure the cache is left untouched, the failure goes to
// the sink, and Load returns false.
func (c *Cache) Load(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, err := c.read(id)
	if err != nil {
		c.sink.Report(report.Failure{Op: "load", ObjectID: id, File: paths.DescriptorPath(id), Err: err})
		return false
	}
	c.objects[id] = obj
	c.logger.Debug("loaded object", zap.String("objectId", id))
	return true
}

// Refresh re-reads the object's files and overwrites the record in place,
// so existing holders of the record see the new values. On failure the
// record keeps its previous state and the error is returned.
func (c *Cache) Refresh(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[id]
	if !ok {
		return model.NotFound(id)
	}
	fresh, err := c.read(id)
	if err != nil {
		return err
	}
	obj.Name = fresh.Name
	obj.Aliases = fresh.Aliases
	obj.TraitIDs = fresh.TraitIDs
	obj.LocationID = fresh.LocationID
	obj.UserID = fresh.UserID
	obj.Properties = fresh.Properties
	c.logger.Debug("reloaded object", zap.String("objectId", id))
	return nil
}

// Insert adds a new object and persists it. The record must have a valid,
// unused ID.
func (c *Cache) Insert(obj *model.Object) (*model.Object, error) {
	if obj == nil {
		return nil, model.Validation("object is required")
	}
	if obj.ID == "" {
		return nil, model.Validation("object must contain a non-empty string id")
	}
	if !paths.ValidID(obj.ID) {
		return nil, model.Validation(fmt.Sprintf("object id %q cannot name a directory", obj.ID))
	}
	for _, key := range sortedKeys(obj.Properties) {
		if err := checkProperty(key, obj.Properties[key]); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.objects[obj.ID]; exists {
		return nil, model.Conflict(obj.ID)
	}
	if obj.Properties == nil {
		obj.Properties = make(map[string]model.PropertyValue)
	}
	if err := c.save(obj); err != nil {
		return nil, err
	}
	c.objects[obj.ID] = obj
	c.logAudit(audit.OpInsert, obj.ID, "")
	return obj, nil
}

// FindByID returns the object with the given ID.
func (c *Cache) FindByID(id string) (*model.Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.objects[id]
	return obj, ok
}

// Has reports whether id is in the cache.
func (c *Cache) Has(id string) bool {
	_, ok := c.FindByID(id)
	return ok
}

// FindBy returns the objects whose top-level attribute equals value, ordered
// by ID. Unknown attributes match nothing.
func (c *Cache) FindBy(attribute, value string) []*model.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*model.Object
	for _, obj := range c.objects {
		if got, ok := obj.Attribute(attribute); ok && got == value {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns a snapshot of the keyed collection. The map is the caller's;
// the records are shared.
func (c *Cache) All() map[string]*model.Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.objects)
}

// IDs returns every ID in the cache, sorted.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.objects)
}

// PlayerIDs returns the IDs of player-controlled objects, sorted.
func (c *Cache) PlayerIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for id, obj := range c.objects {
		if obj.IsPlayer() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of cached objects.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Save writes the in-memory record back to disk.
func (c *Cache) Save(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[id]
	if !ok {
		return model.NotFound(id)
	}
	if err := c.save(obj); err != nil {
		return err
	}
	c.logAudit(audit.OpSave, id, "")
	return nil
}

// SetProperty stores value under key and saves the object. A callable
// replaced by one stored in a different file has its old file deleted.
// Literals shaped like callable markers and callable files outside the object
// directory are rejected with a validation error.
func (c *Cache) SetProperty(id, key string, value model.PropertyValue) error {
	if key == "" {
		return model.Validation("property name is required")
	}
	if value == nil {
		value = model.Literal{}
	}
	if err := checkProperty(key, value); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[id]
	if !ok {
		return model.NotFound(id)
	}

	if old, had := obj.Properties[key]; had {
		oldFile, oldCallable := model.CallableFile(key, old)
		newFile, _ := model.CallableFile(key, value)
		if oldCallable && oldFile != newFile {
			if err := c.gw.Remove(paths.CallablePath(id, oldFile)); err != nil {
				return model.IO("remove", paths.CallablePath(id, oldFile), err)
			}
		}
	}

	if obj.Properties == nil {
		obj.Properties = make(map[string]model.PropertyValue)
	}
	obj.Properties[key] = value
	if err := c.save(obj); err != nil {
		return err
	}
	c.logAudit(audit.OpSetProperty, id, key)
	return nil
}

// RemoveProperty drops key from the object, deletes the backing file when
// the value is a callable, and saves the object. A nil value means the
// value currently stored under key.
func (c *Cache) RemoveProperty(id, key string, value model.PropertyValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[id]
	if !ok {
		return model.NotFound(id)
	}
	if value == nil {
		value = obj.Properties[key]
	}
	if file, isCallable := model.CallableFile(key, value); isCallable {
		p := paths.CallablePath(id, file)
		if err := c.gw.Remove(p); err != nil {
			return model.IO("remove", p, err)
		}
	}
	delete(obj.Properties, key)
	if err := c.save(obj); err != nil {
		return err
	}
	c.logAudit(audit.OpRemoveProp, id, key)
	return nil
}

// Remove deletes the object's callable files, its descriptor and its
// directory, then drops it from the cache. It reports whether id was
// present. If a file cannot be deleted the record stays in the cache.
func (c *Cache) Remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[id]
	if !ok {
		return false, nil
	}

	var errs []error
	for _, key := range sortedKeys(obj.Properties) {
		file, isCallable := model.CallableFile(key, obj.Properties[key])
		if !isCallable {
			continue
		}
		p := paths.CallablePath(id, file)
		if err := c.gw.Remove(p); err != nil {
			errs = append(errs, model.IO("remove", p, err))
		}
	}
	descriptorPath := paths.DescriptorPath(id)
	if err := c.gw.Remove(descriptorPath); err != nil {
		errs = append(errs, model.IO("remove", descriptorPath, err))
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}

	// Leftover foreign files keep the directory alive; the object is gone
	// either way.
	if err := c.gw.RemoveDir(id); err != nil {
		c.sink.Report(report.Failure{Op: "remove-dir", ObjectID: id, Err: model.IO("remove", id, err)})
	}

	delete(c.objects, id)
	c.logAudit(audit.OpRemove, id, "")
	return true, nil
}

// Forget drops id from the cache without touching the disk. It is used when
// the descriptor has already disappeared. It reports whether id was present.
func (c *Cache) Forget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[id]; !ok {
		return false
	}
	delete(c.objects, id)
	return true
}

// read builds a fresh record for id from its files. Callers hold c.mu.
func (c *Cache) read(id string) (*model.Object, error) {
	descriptorPath := paths.DescriptorPath(id)
	text, err := c.gw.Read(descriptorPath)
	if err != nil {
		e := model.IO("read", descriptorPath, err)
		e.ObjectID = id
		return nil, e
	}
	d, props, err := decodeDescriptor([]byte(text))
	if err != nil {
		return nil, model.Parse(id, descriptorPath, err)
	}

	obj := &model.Object{
		ID:         id,
		Name:       d.Name,
		Aliases:    d.Aliases,
		TraitIDs:   d.TraitIDs,
		LocationID: d.LocationID,
		UserID:     d.UserID,
		Properties: make(map[string]model.PropertyValue, len(props)),
	}
	for key, prop := range props {
		if !prop.callable {
			obj.Properties[key] = model.Literal{Value: prop.literal}
			continue
		}
		p := paths.CallablePath(id, prop.file)
		source, err := c.gw.Read(p)
		if err != nil {
			e := model.IO("read", p, err)
			e.ObjectID = id
			return nil, e
		}
		obj.Properties[key] = c.codec.Parse(prop.file, source)
	}
	return obj, nil
}

// save writes every callable to its own file and then the descriptor.
// Callables without a file name get their default one. Callers hold c.mu.
func (c *Cache) save(obj *model.Object) error {
	markers := make(map[string]callableMarker)
	for _, key := range sortedKeys(obj.Properties) {
		value := obj.Properties[key]
		if !model.IsCallable(value) {
			continue
		}
		file, contents, err := c.codec.Serialize(key, value)
		if err != nil {
			return err
		}
		p := paths.CallablePath(obj.ID, file)
		if err := c.gw.Write(p, contents); err != nil {
			return model.IO("write", p, err)
		}
		switch v := value.(type) {
		case *model.Verb:
			v.File = file
			markers[key] = callableMarker{Verb: true, File: file}
		case *model.Function:
			v.File = file
			markers[key] = callableMarker{Function: true, File: file}
		}
	}

	data, err := encodeDescriptor(obj, markers)
	if err != nil {
		return model.Parse(obj.ID, paths.DescriptorPath(obj.ID), err)
	}
	descriptorPath := paths.DescriptorPath(obj.ID)
	if err := c.gw.Write(descriptorPath, string(data)); err != nil {
		return model.IO("write", descriptorPath, err)
	}
	c.logger.Debug("saved object", zap.String("objectId", obj.ID))
	return nil
}

func (c *Cache) logAudit(op, id, property string) {
	if err := c.audit.LogAPI(op, id, property); err != nil {
		c.sink.Report(report.Failure{Op: "audit", ObjectID: id, Err: err})
	}
}
