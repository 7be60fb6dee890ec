package services

import (
	"context"
	"sync"
	"time"

	"diskwarden/internal/models"

	"github.com/patrickmn/go-cache"
)

const filesystemsCacheKey = "filesystems"

// DefaultCacheTTL is how long a discovery result is served before df runs again
const DefaultCacheTTL = 5 * time.Second

// FilesystemCache holds the last successful discovery with a TTL
type FilesystemCache struct {
	// mu guards the store pointer swapped by SetCacheTTL; go-cache locks its own contents
	mu    sync.RWMutex
	store *cache.Cache
	ttl   time.Duration
}

var filesystemCache = newFilesystemCache(DefaultCacheTTL)

func newFilesystemCache(ttl time.Duration) *FilesystemCache {
	// no janitor: expired entries are dropped lazily on Get
	return &FilesystemCache{
		store: cache.New(ttl, 0),
		ttl:   ttl,
	}
}

// SetCacheTTL sets the cache time-to-live and drops the cached result
func SetCacheTTL(duration time.Duration) {
	filesystemCache.mu.Lock()
	defer filesystemCache.mu.Unlock()
	filesystemCache.store = cache.New(duration, 0)
	filesystemCache.ttl = duration
}

func (fc *FilesystemCache) get() ([]models.Filesystem, bool) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	cached, found := fc.store.Get(filesystemsCacheKey)
	if !found {
		return nil, false
	}
	return copyFilesystems(cached.([]models.Filesystem)), true
}

func (fc *FilesystemCache) set(filesystems []models.Filesystem) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	fc.store.SetDefault(filesystemsCacheKey, copyFilesystems(filesystems))
}

// StoreFilesystems replaces the cached discovery result
func StoreFilesystems(filesystems []models.Filesystem) {
	filesystemCache.set(filesystems)
}

// GetCachedFilesystems returns cached filesystems if valid, otherwise discovers fresh
func GetCachedFilesystems(ctx context.Context) ([]models.Filesystem, error) {
	if filesystems, ok := filesystemCache.get(); ok {
		return filesystems, nil
	}

	filesystems, err := DiscoverFilesystems(ctx)
	if err != nil {
		return nil, err
	}

	filesystemCache.set(filesystems)
	return filesystems, nil
}

// ClearCache drops the cached discovery result
func ClearCache() {
	filesystemCache.mu.RLock()
	defer filesystemCache.mu.RUnlock()
	filesystemCache.store.Flush()
}

func copyFilesystems(filesystems []models.Filesystem) []models.Filesystem {
	out := make([]models.Filesystem, len(filesystems))
	copy(out, filesystems)
	return out
}
