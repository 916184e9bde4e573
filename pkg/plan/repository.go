package plan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/logger"
)

// FileSuffix is appended to the app id to form a plan file name.
const FileSuffix = "_actionplan.json"

// ErrNotFound is returned when no plan exists for an app or method.
var ErrNotFound = errors.New("action plan not found")

// LoadFile reads and decodes a plan file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Decode(data)
}

// Repository loads plan files from a directory and caches them per app id.
// It is safe for concurrent use.
type Repository struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	cache map[string]*File

	// OnInvalidate, when set before Watch, is called after a watched
	// change drops an app's cached plans.
	OnInvalidate func(appID string)
}

// NewRepository creates a repository reading <dir>/<appId>_actionplan.json.
func NewRepository(dir string) *Repository {
	return &Repository{
		dir:   dir,
		log:   logger.Component("plan"),
		cache: make(map[string]*File),
	}
}

// Dir returns the plan directory.
func (r *Repository) Dir() string { return r.dir }

// Path returns the plan file path for appID.
func (r *Repository) Path(appID string) string {
	return filepath.Join(r.dir, appID+FileSuffix)
}

// Load returns the plans for appID, reading the file on first use.
// A missing file is not cached so a later write is picked up.
func (r *Repository) Load(appID string) (*File, error) {
	if appID == "" {
		return nil, fmt.Errorf("%w: empty app id", ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.cache[appID]; ok {
		return f, nil
	}

	f, err := LoadFile(r.Path(appID))
	if err != nil {
		r.log.Warn().Err(err).Str("app", appID).Msg("load plans failed")
		return nil, err
	}
	r.cache[appID] = f
	r.log.Info().Str("app", appID).Int("methods", len(f.ActionPlans)).Msg("plans loaded")
	return f, nil
}

// Plan returns the plan for (appID, method).
func (r *Repository) Plan(appID, method string) (*Plan, error) {
	f, err := r.Load(appID)
	if err != nil {
		return nil, err
	}
	p := f.Plan(method)
	if p == nil {
		return nil, fmt.Errorf("%w: app=%s method=%s", ErrNotFound, appID, method)
	}
	return p, nil
}

// Methods returns the sorted method names available for appID.
func (r *Repository) Methods(appID string) ([]string, error) {
	f, err := r.Load(appID)
	if err != nil {
		return nil, err
	}
	return f.Methods(), nil
}

// Invalidate drops the cached plans for appID.
func (r *Repository) Invalidate(appID string) {
	r.mu.Lock()
	delete(r.cache, appID)
	r.mu.Unlock()
}

// Cached reports whether plans for appID are cached.
func (r *Repository) Cached(appID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[appID]
	return ok
}

// Watch invalidates cached plans whenever a plan file in the directory
// changes. It returns once the watcher is running; the returned channel is
// closed after ctx is cancelled and the watcher has shut down.
func (r *Repository) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}

	r.log.Info().Str("dir", r.dir).Msg("watching plan directory")

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		r.watch(ctx, watcher)
	}()
	return done, nil
}

func (r *Repository) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			appID, isPlan := appIDFromPath(event.Name)
			if !isPlan {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.Invalidate(appID)
			r.log.Debug().Str("app", appID).Str("op", event.Op.String()).Msg("plans invalidated")
			if r.OnInvalidate != nil {
				r.OnInvalidate(appID)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func appIDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileSuffix) {
		return "", false
	}
	appID := strings.TrimSuffix(base, FileSuffix)
	return appID, appID != ""
}
