package cli

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/aidanlsb/moodb/internal/audit"
	"github.com/aidanlsb/moodb/internal/callable"
	"github.com/aidanlsb/moodb/internal/fsdb"
	"github.com/aidanlsb/moodb/internal/objects"
	"github.com/aidanlsb/moodb/internal/report"
)

// store is an opened object store with every object loaded.
type store struct {
	root     string
	db       *fsdb.DB
	cache    *objects.Cache
	codec    *callable.Codec
	audit    *audit.Logger
	sink     report.Sink
	failures *report.Recorder
	logger   *zap.Logger
}

// openStore opens the store at root and loads it. Objects that fail to load
// are logged and kept in failures.
func openStore(root string, auditEnabled bool, logger *zap.Logger) (*store, error) {
	db, err := fsdb.Open(root)
	if err != nil {
		return nil, err
	}

	failures := &report.Recorder{}
	sink := report.Tee(report.NewZapSink(logger), failures)
	codec := callable.New(sink)
	auditLog := audit.New(db.Root(), auditEnabled)

	cache, err := objects.New(objects.Config{
		Gateway: db,
		Codec:   codec,
		Sink:    sink,
		Logger:  logger,
		Audit:   auditLog,
	})
	if err != nil {
		return nil, err
	}
	loaded, err := cache.LoadAll()
	if err != nil {
		return nil, err
	}
	logger.Debug("store loaded", zap.String("root", db.Root()), zap.Int("objects", loaded))

	return &store{
		root:     db.Root(),
		db:       db,
		cache:    cache,
		codec:    codec,
		audit:    auditLog,
		sink:     sink,
		failures: failures,
		logger:   logger,
	}, nil
}

// loadWarnings turns recorded load failures into warnings.
func (s *store) loadWarnings() []Warning {
	var warnings []Warning
	for _, f := range s.failures.Failures() {
		subject := f.ObjectID
		if subject == "" {
			subject = f.File
		}
		warnings = append(warnings, Warning{
			Code:     WarnLoadFailed,
			Message:  fmt.Sprintf("%s: %v", subject, f.Err),
			ObjectID: f.ObjectID,
		})
	}
	return warnings
}

// failedIDs returns the ids of objects that failed to load, sorted.
func (s *store) failedIDs() []string {
	seen := make(map[string]struct{})
	for _, f := range s.failures.Failures() {
		if f.Op == "load" && f.ObjectID != "" {
			seen[f.ObjectID] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// openCurrentStore opens the store the global flags resolved to.
func openCurrentStore() (*store, error) {
	return openStore(getRoot(), cfg != nil && cfg.Audit, logger)
}
