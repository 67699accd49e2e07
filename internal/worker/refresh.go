package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
)

// IndexService computes the indices refreshed by the job.
type IndexService interface {
	CurrentIndex(ctx context.Context, pos airquality.Position, at time.Time) (airquality.Index, error)
	ForecastIndex(ctx context.Context, pos airquality.Position, issued civil.Date) (map[civil.Date]airquality.Index, error)
}

// RefreshJob computes the current and forecast indices of every configured
// point. Running it warms the forecast file cache when the service reads
// forecasts from the published files.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	service IndexService
	now     func() time.Time

	metrics *RefreshMetrics

	mu     sync.RWMutex
	latest map[string]PointIndex
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes     int64
	SuccessfulRefresh  int64
	FailedRefreshes    int64
	CurrentRefreshes   int64
	ForecastRefreshes  int64
	UnavailableIndices int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Service IndexService

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		service: cfg.Service,
		now:     now,
		metrics: &RefreshMetrics{},
		latest:  make(map[string]PointIndex),
	}
}

// PointIndex holds the indices computed for one point.
type PointIndex struct {
	Point Point
	At    time.Time

	// Current is IndexUnknown when a component was missing.
	Current airquality.Index

	// Forecast maps each forecast day to its index.
	Forecast map[civil.Date]airquality.Index
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []RefreshError
	Indices     []PointIndex
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Kind  string
	Point Point
	Error string
}

// Run refreshes every configured point.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.run(ctx, j.config.Points)
}

// RunPoints refreshes the given points instead of the configured ones.
func (j *RefreshJob) RunPoints(ctx context.Context, points []Point) *RefreshResult {
	return j.run(ctx, points)
}

func (j *RefreshJob) run(ctx context.Context, points []Point) *RefreshResult {
	startTime := j.now()
	result := &RefreshResult{
		StartTime:   startTime,
		TotalPoints: len(points),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting index refresh job")

	// Create work channels
	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pointsChan, resultsChan)
		}()
	}

	// Send points to workers
	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for pr := range resultsChan {
		if pr.success {
			result.Successful++
			result.Indices = append(result.Indices, pr.index)
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("index refresh job completed")

	return result
}

type pointResult struct {
	success bool
	index   PointIndex
	errors  []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPoint(ctx, point)
		}
	}
}

func (j *RefreshJob) refreshPoint(ctx context.Context, point Point) pointResult {
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	now := j.now()
	result := pointResult{
		success: true,
		index:   PointIndex{Point: point, At: now},
	}
	logger := j.logger.With().Str("point", point.Name).Logger()

	fail := func(kind string, err error) {
		result.success = false
		result.errors = append(result.errors, RefreshError{Kind: kind, Point: point, Error: err.Error()})
		logger.Warn().Err(err).Str("kind", kind).Msg("index refresh failed")
	}

	if j.config.RefreshCurrent {
		idx, err := j.service.CurrentIndex(pointCtx, point.Position(), now)
		switch {
		case err == nil:
			result.index.Current = idx
			j.count(&j.metrics.CurrentRefreshes, 1)
		case errors.Is(err, airquality.ErrInvalidInput):
			// A missing component is reported, not retried.
			result.index.Current = airquality.IndexUnknown
			j.count(&j.metrics.UnavailableIndices, 1)
			logger.Debug().Err(err).Msg("current index unavailable")
		default:
			fail("current", err)
		}
	}

	if j.config.RefreshForecast {
		forecast, err := j.service.ForecastIndex(pointCtx, point.Position(), civil.DateOf(now))
		if err != nil {
			fail("forecast", err)
		} else {
			result.index.Forecast = forecast
			j.count(&j.metrics.ForecastRefreshes, 1)
			for _, idx := range forecast {
				if !idx.Valid() {
					j.count(&j.metrics.UnavailableIndices, 1)
				}
			}
		}
	}

	if result.success {
		j.mu.Lock()
		j.latest[point.Name] = result.index
		j.mu.Unlock()
	}

	return result
}

func (j *RefreshJob) count(counter *int64, n int64) {
	j.metrics.mu.Lock()
	*counter += n
	j.metrics.mu.Unlock()
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// Latest returns the last successfully refreshed indices of a point.
func (j *RefreshJob) Latest(name string) (PointIndex, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	idx, ok := j.latest[name]
	return idx, ok
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		CurrentRefreshes:    j.metrics.CurrentRefreshes,
		ForecastRefreshes:   j.metrics.ForecastRefreshes,
		UnavailableIndices:  j.metrics.UnavailableIndices,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"current_refreshes":     m.CurrentRefreshes,
		"forecast_refreshes":    m.ForecastRefreshes,
		"unavailable_indices":   m.UnavailableIndices,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}

// Start runs the job immediately and then every interval until ctx is done.
func (j *RefreshJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
