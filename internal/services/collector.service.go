package services

import (
	"context"
	"sync"
	"time"
)

// DefaultCollectInterval is how often the background collector runs df
const DefaultCollectInterval = 5 * time.Second

// FilesystemCollector periodically refreshes the cache, history and gauges
type FilesystemCollector struct {
	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	lastUpdated time.Time
	lastErr     error
}

var collector = &FilesystemCollector{}

// StartFilesystemCollector starts the background collector.
// It runs once immediately, then every interval until ctx is done or
// StopFilesystemCollector is called.
func StartFilesystemCollector(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}

	collector.mu.Lock()
	if collector.running {
		collector.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	collector.running = true
	collector.cancel = cancel
	collector.done = make(chan struct{})
	done := collector.done
	collector.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		collector.collect(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collector.collect(ctx)
			}
		}
	}()

	log.Infof("Filesystem collector started (interval: %v)", interval)
}

// StopFilesystemCollector stops the background collector and waits for it to exit
func StopFilesystemCollector() {
	collector.mu.Lock()
	if !collector.running {
		collector.mu.Unlock()
		return
	}
	collector.running = false
	cancel, done := collector.cancel, collector.done
	collector.mu.Unlock()

	cancel()
	<-done
	log.Info("Filesystem collector stopped")
}

// CollectorStatus reports when the collector last succeeded and its last error
func CollectorStatus() (lastUpdated time.Time, lastErr error) {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	return collector.lastUpdated, collector.lastErr
}

func (c *FilesystemCollector) collect(ctx context.Context) {
	// df runs outside the lock so readers are never blocked on it
	filesystems, err := DiscoverFilesystems(ctx)
	now := time.Now()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		RecordDiscoveryFailure()
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return
	}

	StoreFilesystems(filesystems)
	RecordFilesystems(now, filesystems)
	UpdateFilesystemGauges(filesystems)

	c.mu.Lock()
	c.lastUpdated = now
	c.lastErr = nil
	c.mu.Unlock()
}
