package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default TTLs per resource volatility (seconds are kept as durations here;
// callers pass these into Store.Set).
const (
	TTLAccounts     = 7 * 24 * time.Hour
	TTLCalendars    = 7 * 24 * time.Hour
	TTLTaskAccounts = 7 * 24 * time.Hour
	TTLTags         = 24 * time.Hour
	TTLTaskLists    = 24 * time.Hour
	TTLEvents       = 30 * time.Minute
	TTLTasks        = 30 * time.Minute
	TTLSingle       = 5 * time.Minute
)

const metaFileName = "_meta.json"

// metaEntry records when a key was written and how long it stays fresh.
type metaEntry struct {
	WrittenAt  float64 `json:"ts"`
	TTLSeconds float64 `json:"ttl"`
}

// Store is a file-backed TTL cache for API responses.
//
// It is an optimization, not a source of truth: every failure mode (missing
// directory, corrupt index, corrupt payload, permission errors) degrades to a
// cache miss. None of the methods return an error.
//
// The store assumes a single writer. Concurrent CLI invocations against the
// same directory can race on writes; that is accepted for an interactive tool.
type Store struct {
	dir    string
	meta   map[string]metaEntry
	logger *slog.Logger
	now    func() time.Time
}

// KeyStats is a diagnostic snapshot for one cache entry.
type KeyStats struct {
	AgeSeconds       float64 `json:"age_seconds"`
	TTLSeconds       int64   `json:"ttl"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Expired          bool    `json:"expired"`
	SizeBytes        int64   `json:"size_bytes"`
}

// Stats is a diagnostic snapshot of the whole store.
type Stats struct {
	Entries  int                 `json:"entries"`
	CacheDir string              `json:"cache_dir"`
	Keys     map[string]KeyStats `json:"keys"`
}

// DefaultDir returns the default cache directory, honoring XDG_CACHE_HOME.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gutenmorgen")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gutenmorgen-cache")
	}
	return filepath.Join(home, ".cache", "gutenmorgen")
}

// NewStore creates a Store rooted at dir, creating it if needed. If dir is
// empty the default location is used. A nil logger falls back to slog.Default.
func NewStore(dir string, logger *slog.Logger) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.logger.Debug("cache directory unavailable, operating as empty cache",
			slog.String("dir", dir), slog.String("error", err.Error()))
	}
	s.meta = s.loadMeta()
	return s
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) loadMeta() map[string]metaEntry {
	raw, err := os.ReadFile(filepath.Join(s.dir, metaFileName))
	if err != nil {
		return map[string]metaEntry{}
	}
	meta := map[string]metaEntry{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		// Corrupt index: start over rather than fail.
		return map[string]metaEntry{}
	}
	return meta
}

func (s *Store) saveMeta() {
	raw, err := json.Marshal(s.meta)
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, metaFileName), raw, 0o600); err != nil {
		s.logger.Debug("cache index write failed", slog.String("error", err.Error()))
	}
}

// dataPath maps a hierarchical key like "tasks/list" to a flat file name.
func (s *Store) dataPath(key string) string {
	safe := strings.ReplaceAll(key, "/", "--")
	return filepath.Join(s.dir, safe+".json")
}

// Get returns the cached payload for key if present and fresh, else nil.
// Stale entries are not evicted here; staleness is evaluated lazily and
// eviction happens on the next overwrite or invalidation.
func (s *Store) Get(key string) json.RawMessage {
	entry, ok := s.meta[key]
	if !ok {
		return nil
	}
	// Fresh iff now < writtenAt + ttl; the exact expiry instant is a miss.
	if float64(s.now().Unix()) >= entry.WrittenAt+entry.TTLSeconds {
		return nil
	}
	raw, err := os.ReadFile(s.dataPath(key))
	if err != nil {
		return nil
	}
	if !json.Valid(raw) {
		return nil
	}
	return raw
}

// Set durably persists payload under key with a freshness window starting now.
// A prior entry for the same key is overwritten unconditionally.
func (s *Store) Set(key string, payload any, ttl time.Duration) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Debug("cache marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(s.dataPath(key), raw, 0o600); err != nil {
		s.logger.Debug("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.meta[key] = metaEntry{
		WrittenAt:  float64(s.now().Unix()),
		TTLSeconds: ttl.Seconds(),
	}
	s.saveMeta()
}

// Invalidate removes every entry whose key equals prefix or falls under
// prefix + "/". Invalidating "tasks" removes "tasks/list" and "tasks/42" but
// never "tags". No-op when nothing matches.
func (s *Store) Invalidate(prefix string) {
	var removed []string
	for key := range s.meta {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			removed = append(removed, key)
		}
	}
	for _, key := range removed {
		_ = os.Remove(s.dataPath(key))
		delete(s.meta, key)
	}
	if len(removed) > 0 {
		s.saveMeta()
	}
}

// Clear removes all entries.
func (s *Store) Clear() {
	for key := range s.meta {
		_ = os.Remove(s.dataPath(key))
	}
	s.meta = map[string]metaEntry{}
	s.saveMeta()
}

// Snapshot returns cache statistics without mutating state or triggering
// expiry: expired entries are reported as expired, not removed.
func (s *Store) Snapshot() Stats {
	now := float64(s.now().Unix())
	keys := make(map[string]KeyStats, len(s.meta))
	for key, entry := range s.meta {
		age := now - entry.WrittenAt
		remaining := entry.TTLSeconds - age
		var size int64
		if fi, err := os.Stat(s.dataPath(key)); err == nil {
			size = fi.Size()
		}
		keys[key] = KeyStats{
			AgeSeconds:       age,
			TTLSeconds:       int64(entry.TTLSeconds),
			RemainingSeconds: max(0, remaining),
			Expired:          remaining <= 0,
			SizeBytes:        size,
		}
	}
	return Stats{
		Entries:  len(keys),
		CacheDir: s.dir,
		Keys:     keys,
	}
}
