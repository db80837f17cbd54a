// Package monitor runs the periodic check cycle: fetch, compare, persist, notify, sleep.
package monitor

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/unitwatch/internal/differ"
	"github.com/aleister1102/unitwatch/internal/filter"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/aleister1102/unitwatch/internal/notifier"
	"github.com/rs/zerolog"
)

// Store persists the last observed inventory.
type Store interface {
	Load() models.Inventory
	Save(inv models.Inventory)
}

// Fetcher produces the current inventory.
type Fetcher interface {
	Setup(ctx context.Context) error
	Fetch(ctx context.Context) (models.Inventory, error)
	Cleanup()
}

// Notifier delivers a message to the configured channels.
type Notifier interface {
	Notify(ctx context.Context, title, body string) map[string]bool
	HasEnabledChannels() bool
}

// Narrator prints operator-facing progress.
type Narrator interface {
	Inventory(inv models.Inventory)
	Changes(d models.Delta)
	Info(format string, a ...any)
	Success(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
}

// FetcherUnavailableError is returned by Run when the fetcher cannot be set up.
type FetcherUnavailableError struct {
	Err error
}

func (e *FetcherUnavailableError) Error() string {
	return "fetcher unavailable: " + e.Err.Error()
}

func (e *FetcherUnavailableError) Unwrap() error {
	return e.Err
}

// CheckRecorder observes each completed check.
type CheckRecorder interface {
	ObserveCheck(units, filtered, added, removed int, fetchFailed bool, d time.Duration)
}

// Options tunes a Loop.
type Options struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	MaxChecks    int
	Filter       filter.Config
	Clock        func() time.Time
	// Usage samples resource usage for the cycle summary. Nil uses GetResourceUsage.
	Usage   func(ctx context.Context) ResourceUsage
	Metrics CheckRecorder
}

// Loop owns the previous inventory and drives one check per interval.
type Loop struct {
	store     Store
	fetcher   Fetcher
	notifier  Notifier
	console   Narrator
	differ    *differ.InventoryDiffer
	formatter *notifier.Formatter
	tracker   *CycleTracker
	opts      Options
	logger    zerolog.Logger

	cleanupOnce sync.Once
}

// NewLoop wires a loop. Nothing runs until Run.
func NewLoop(store Store, fetcher Fetcher, n Notifier, console Narrator, opts Options, logger zerolog.Logger) *Loop {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Usage == nil {
		opts.Usage = GetResourceUsage
	}
	loopLogger := logger.With().Str("component", "MonitorLoop").Logger()
	return &Loop{
		store:     store,
		fetcher:   fetcher,
		notifier:  n,
		console:   console,
		differ:    differ.NewInventoryDiffer(loopLogger),
		formatter: notifier.NewFormatter(opts.Clock),
		tracker:   NewCycleTracker(opts.MaxChecks, opts.Clock),
		opts:      opts,
		logger:    loopLogger,
	}
}

// cycleStats is the structured summary logged after each check.
type cycleStats struct {
	iteration     int
	units         int
	filteredUnits int
	added         int
	removed       int
	notified      []string
	fetchFailed   bool
	started       time.Time
}

// Run checks until ctx is cancelled or the check cap is reached and returns the number
// of completed checks. Cancellation is a normal exit and returns a nil error. The fetcher
// is cleaned up exactly once on every path.
func (l *Loop) Run(ctx context.Context) (int, error) {
	defer l.cleanup()

	previous := l.store.Load()
	hasBaseline := !previous.IsEmpty()
	if hasBaseline {
		l.console.Success("Loaded %d units from previous run", previous.Len())
	}

	l.console.Info("🌐 Initializing fetcher...")
	if err := l.fetcher.Setup(ctx); err != nil {
		l.logger.Error().Err(err).Msg("Fetcher setup failed")
		l.console.Error("Failed to initialize fetcher: %v", err)
		return 0, &FetcherUnavailableError{Err: err}
	}
	l.console.Success("Fetcher ready")

	for {
		if ctx.Err() != nil {
			return l.tracker.Completed(), nil
		}

		iteration := l.tracker.StartCycle()
		current, ok := l.runCycle(ctx, iteration, previous, iteration == 1 && !hasBaseline)
		if !ok {
			return l.tracker.Completed(), nil
		}
		previous = current
		l.tracker.EndCycle()

		if !l.tracker.ShouldContinue() {
			l.logger.Info().Int("checks", l.tracker.Completed()).Msg("Check limit reached")
			return l.tracker.Completed(), nil
		}
		if iteration == 1 {
			l.console.Info("\n💤 Waiting %s until next check...", l.opts.Interval)
		}
		if !l.sleep(ctx) {
			return l.tracker.Completed(), nil
		}
	}
}

// runCycle performs one check and returns the inventory that becomes the next baseline.
// It reports false when ctx was cancelled before anything was persisted.
func (l *Loop) runCycle(ctx context.Context, iteration int, previous models.Inventory, firstRun bool) (models.Inventory, bool) {
	stats := cycleStats{iteration: iteration, started: time.Now()}
	l.console.Info("\n⏰ Check #%d at %s", iteration, l.opts.Clock().Format(notifier.TimestampLayout))

	current, err := l.fetch(ctx)
	if err != nil && ctx.Err() != nil {
		l.logger.Info().Int("iteration", iteration).Msg("Check interrupted by shutdown")
		return previous, false
	}
	stats.fetchFailed = err != nil
	filtered := filter.Apply(current, l.opts.Filter)
	stats.units = current.Len()
	stats.filteredUnits = filtered.Len()

	l.store.Save(current)

	// Sends outlive shutdown; each one is still bounded by the dispatcher timeout.
	sendCtx := context.WithoutCancel(ctx)
	if firstRun {
		l.reportFirstRun(sendCtx, current, filtered, &stats)
	} else {
		l.reportChanges(sendCtx, current, previous, filtered, &stats)
	}

	l.logSummary(ctx, stats)
	return current, true
}

func (l *Loop) fetch(ctx context.Context) (models.Inventory, error) {
	fetchCtx := ctx
	if l.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.opts.FetchTimeout)
		defer cancel()
	}

	inv, err := l.fetcher.Fetch(fetchCtx)
	if err != nil {
		l.logger.Error().Err(err).Msg("Fetch failed, treating inventory as empty")
		l.console.Error("Error fetching units: %v", err)
		return models.Inventory{}, err
	}
	if inv == nil {
		inv = models.Inventory{}
	}
	return inv, nil
}

func (l *Loop) reportFirstRun(ctx context.Context, current, filtered models.Inventory, stats *cycleStats) {
	l.console.Inventory(current)

	switch {
	case filtered.IsEmpty():
		l.console.Info("ℹ️  No units match notification filter (%s)", l.opts.Filter.Describe())
	case !l.notifier.HasEnabledChannels():
		l.console.Info("ℹ️  No notification channel configured")
	default:
		msg := l.formatter.StartedNotification(filtered, l.opts.Filter.Categories())
		stats.notified = l.notify(ctx, msg, filtered.Len(), "units")
	}
}

func (l *Loop) reportChanges(ctx context.Context, current, previous, filtered models.Inventory, stats *cycleStats) {
	delta := l.differ.Compare(current, previous)
	stats.added = len(delta.Added)
	stats.removed = len(delta.Removed)

	if delta.IsEmpty() {
		l.console.Success("No changes (%d units available)", current.Len())
		return
	}

	l.console.Changes(delta)
	l.console.Inventory(current)

	relevant := filter.ApplyDelta(delta, l.opts.Filter)
	switch {
	case relevant.IsEmpty():
		l.console.Info("ℹ️  Changes detected but none match notification filter (%s)", l.opts.Filter.Describe())
	case !l.notifier.HasEnabledChannels():
		l.console.Info("ℹ️  No notification channel configured")
	default:
		msg := l.formatter.ChangeNotification(relevant, filtered)
		stats.notified = l.notify(ctx, msg, len(relevant.Added)+len(relevant.Removed), "changes")
	}
}

func (l *Loop) notify(ctx context.Context, msg notifier.Message, count int, noun string) []string {
	sent := slices.Sorted(maps.Keys(l.notifier.Notify(ctx, msg.Title, msg.Body)))
	if len(sent) == 0 {
		l.console.Warn("No notifications configured or all failed")
		return nil
	}
	l.console.Info("📱 Notifications sent: %s (%d %s)", strings.Join(sent, ", "), count, noun)
	return sent
}

func (l *Loop) logSummary(ctx context.Context, stats cycleStats) {
	elapsed := time.Since(stats.started)
	if l.opts.Metrics != nil {
		l.opts.Metrics.ObserveCheck(stats.units, stats.filteredUnits, stats.added, stats.removed, stats.fetchFailed, elapsed)
	}

	usage := l.opts.Usage(ctx)
	l.logger.Info().
		Str("cycle_id", l.tracker.GetCurrentCycleID()).
		Int("iteration", stats.iteration).
		Int("units", stats.units).
		Int("filtered_units", stats.filteredUnits).
		Int("added", stats.added).
		Int("removed", stats.removed).
		Strs("notified", stats.notified).
		Bool("fetch_failed", stats.fetchFailed).
		Dur("duration", elapsed).
		Int64("rss_mb", usage.ProcessRSSMB).
		Int64("child_rss_mb", usage.ChildRSSMB).
		Int("goroutines", usage.Goroutines).
		Float64("system_mem_percent", usage.SystemMemUsedPercent).
		Msg("Check completed")
}

// sleep waits one interval. It returns false when ctx is cancelled first.
func (l *Loop) sleep(ctx context.Context) bool {
	timer := time.NewTimer(l.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *Loop) cleanup() {
	l.cleanupOnce.Do(func() {
		l.console.Info("\n🧹 Cleaning up...")
		l.fetcher.Cleanup()
	})
}
