// Package updater implements the Update Poller: a periodic GitHub Releases
// check with pause/skip semantics, retry-with-backoff, and a persisted
// cache.
//
// Grounded on the original TrollVNC GitHubReleaseUpdater (strategy/state
// shape) and on internal/ghrelease for the HTTP/disk collaborators. All
// state is mutated from internal/lifecycle.SerialQueue's single goroutine,
// so every mutation is serialized through that one queue.
package updater

import (
	"context"
	"log/slog"
	"time"

	"github.com/trollvnc/trollvncd/internal/dpkgver"
	"github.com/trollvnc/trollvncd/internal/ghrelease"
	"github.com/trollvnc/trollvncd/internal/lifecycle"
)

// Strategy is the poller's configuration, matching GHUpdateStrategy.
type Strategy struct {
	RepoFullName       string
	MinCheckInterval   time.Duration
	MaxRetryCount      int
	MinRetryInterval   time.Duration
	IncludePrereleases bool
	GithubToken        string
}

// DefaultStrategy returns the defaults: 6h min-check-interval, 3
// max-retry, 60s min-retry-interval, include_prereleases=false.
func DefaultStrategy(repoFullName string) Strategy {
	return Strategy{
		RepoFullName:     repoFullName,
		MinCheckInterval: 6 * time.Hour,
		MaxRetryCount:    3,
		MinRetryInterval: 60 * time.Second,
	}
}

// Event describes an UpdateAvailable notification.
type Event struct {
	Release   ghrelease.Release
	FromCache bool
}

// Poller runs the periodic update check described in . All fields
// below are touched only from the goroutine backing queue.
type Poller struct {
	fetcher *ghrelease.Fetcher
	cache   *ghrelease.CacheStore
	log     *slog.Logger
	queue   *lifecycle.SerialQueue

	onUpdateAvailable func(Event)

	strategy       Strategy
	currentVersion string

	running        bool
	stopCh         chan struct{}
	pausedUntil    time.Time
	skippedVersion string
	lastCheckTime  time.Time

	cachedRelease *ghrelease.Release

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Poller.
func New(fetcher *ghrelease.Fetcher, cache *ghrelease.CacheStore, onUpdateAvailable func(Event), log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		fetcher:           fetcher,
		cache:             cache,
		onUpdateAvailable: onUpdateAvailable,
		log:               log,
		queue:             lifecycle.NewSerialQueue(),
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Configure sets the strategy and current version. If the poller is
// currently running, it is stopped and restarted against the new strategy.
func (p *Poller) Configure(strategy Strategy, currentVersion string) {
	var wasRunning bool
	p.queue.Sync(func() { wasRunning = p.running })
	if wasRunning {
		p.Stop()
	}
	p.queue.Sync(func() {
		p.strategy = strategy
		p.currentVersion = currentVersion
		if rel, err := p.cache.Load(strategy.RepoFullName); err == nil {
			p.cachedRelease = rel
		}
	})
	if wasRunning {
		p.Start()
	}
}

// Start begins periodic ticking at MinCheckInterval/4 (so pause/skip state
// changes take effect promptly without polling GitHub more than once per
// MinCheckInterval). Safe to call multiple times.
func (p *Poller) Start() {
	p.queue.Sync(func() {
		if p.running {
			return
		}
		p.running = true
		p.stopCh = make(chan struct{})
		p.ctx, p.cancel = context.WithCancel(context.Background())
		interval := p.strategy.MinCheckInterval / 4
		if interval <= 0 {
			interval = time.Minute
		}
		go p.loop(interval, p.stopCh)
	})
}

func (p *Poller) loop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick(false)
		}
	}
}

// Stop halts periodic checks and cancels any in-flight request
// best-effort. Idempotent.
func (p *Poller) Stop() {
	p.queue.Sync(func() {
		if !p.running {
			return
		}
		p.running = false
		close(p.stopCh)
		p.stopCh = nil
		p.cancel()
	})
}

// CheckNow forces an immediate check, bypassing MinCheckInterval but still
// honoring pause and the retry budget.
func (p *Poller) CheckNow() {
	p.tick(true)
}

// tick implements the per-tick check algorithm. The network call happens
// outside the queue (it runs as an ephemeral worker); only the state
// reads/writes around it are serialized.
func (p *Poller) tick(checkNow bool) {
	var strategy Strategy
	var current string
	var skip bool
	var ctx context.Context

	p.queue.Sync(func() {
		ctx = p.ctx
		now := time.Now()
		if now.Before(p.pausedUntil) {
			skip = true
			return
		}
		if p.cachedRelease != nil && p.cachedRelease.VersionString == p.skippedVersion {
			skip = true
			return
		}
		if !checkNow && !p.lastCheckTime.IsZero() && p.lastCheckTime.Add(p.strategy.MinCheckInterval).After(now) {
			skip = true
			return
		}
		strategy = p.strategy
		current = p.currentVersion
		p.lastCheckTime = now
	})
	if skip {
		return
	}

	rel, err := p.fetchWithRetry(ctx, strategy)
	if err != nil {
		p.log.Warn("updater: check failed", "repo", strategy.RepoFullName, "error", err)
		return
	}

	isNewer := dpkgver.CompareStrings(current, rel.VersionString) < 0

	var skipped string
	p.queue.Sync(func() {
		p.cachedRelease = rel
		skipped = p.skippedVersion
	})

	if err := p.cache.Save(strategy.RepoFullName, rel); err != nil {
		p.log.Warn("updater: cache save failed", "error", err)
	}

	if isNewer && rel.VersionString != skipped && p.onUpdateAvailable != nil {
		p.onUpdateAvailable(Event{Release: *rel, FromCache: false})
	}
}

// fetchWithRetry implements step 4: retry up to MaxRetryCount times on
// transport failure or 5xx, with backoff MinRetryInterval*2^attempt. Every
// failure is classified into the updater.Error sum type before returning.
func (p *Poller) fetchWithRetry(ctx context.Context, strategy Strategy) (*ghrelease.Release, error) {
	var lastErr error
	for attempt := 0; attempt <= strategy.MaxRetryCount; attempt++ {
		if ctx.Err() != nil {
			return nil, &Error{Kind: ErrorCancelled, Err: ctx.Err()}
		}
		rel, status, err := p.fetcher.FetchLatest(ctx, strategy.RepoFullName, strategy.GithubToken, strategy.IncludePrereleases)
		if err == nil {
			return rel, nil
		}
		if ctx.Err() != nil {
			return nil, &Error{Kind: ErrorCancelled, Err: ctx.Err()}
		}

		classified := classify(status, err)
		lastErr = classified
		if classified.Kind != ErrorTransport {
			return nil, classified
		}
		if attempt < strategy.MaxRetryCount {
			backoff := strategy.MinRetryInterval * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &Error{Kind: ErrorCancelled, Err: ctx.Err()}
			}
		}
	}
	return nil, lastErr
}

// PauseUntil sets paused_until to an absolute time.
func (p *Poller) PauseUntil(t time.Time) {
	p.queue.Sync(func() { p.pausedUntil = t })
}

// PauseFor sets paused_until to now+interval.
func (p *Poller) PauseFor(interval time.Duration) {
	p.PauseUntil(time.Now().Add(interval))
}

// SkipVersion suppresses notifications until a strictly greater release
// appears.
func (p *Poller) SkipVersion(version string) {
	p.queue.Sync(func() { p.skippedVersion = version })
}

// ClearSkippedVersion removes suppression.
func (p *Poller) ClearSkippedVersion() {
	p.queue.Sync(func() { p.skippedVersion = "" })
}

// CachedLatestRelease returns the decoded cache, or nil if absent.
func (p *Poller) CachedLatestRelease() *ghrelease.Release {
	var rel *ghrelease.Release
	p.queue.Sync(func() { rel = p.cachedRelease })
	return rel
}

// HasNewerVersionInCache compares the cached version_string against the
// configured current version.
func (p *Poller) HasNewerVersionInCache() bool {
	var result bool
	p.queue.Sync(func() {
		if p.cachedRelease == nil {
			result = false
			return
		}
		result = dpkgver.CompareStrings(p.currentVersion, p.cachedRelease.VersionString) < 0
	})
	return result
}
