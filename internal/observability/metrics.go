package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

type Metrics struct {
	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	enrollments        *CounterVec
	lectureCompletions *CounterVec
	pairLockWait       *HistogramVec
	readLatency        *HistogramVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(v + "s")
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Init builds the process-wide registry when METRICS_ENABLED is set and
// returns nil otherwise. Every method tolerates a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New returns an unregistered registry.
func New() *Metrics {
	return &Metrics{
		aggregateOps: NewCounterVec("lms_aggregate_operations_total", "Aggregate write operations by operation/status.", []string{"op", "status"}),
		aggregateLatency: NewHistogramVec(
			"lms_aggregate_operation_duration_seconds",
			"Aggregate write latency in seconds by operation/status.",
			[]string{"op", "status"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		aggregateConflicts: NewCounterVec("lms_aggregate_conflicts_total", "Aggregate writes that failed with a conflict.", []string{"op"}),
		aggregateRetries:   NewCounterVec("lms_aggregate_retryable_total", "Aggregate writes that failed with a retryable error.", []string{"op"}),

		enrollments:        NewCounterVec("lms_enrollment_changes_total", "Enrollment outcomes by result.", []string{"result"}),
		lectureCompletions: NewCounterVec("lms_lecture_completions_total", "MarkComplete outcomes by result.", []string{"result"}),
		pairLockWait: NewHistogramVec(
			"lms_pair_lock_wait_seconds",
			"Time spent acquiring the per (user, course) lock by backend.",
			[]string{"backend"},
			[]float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		),
		readLatency: NewHistogramVec(
			"lms_read_duration_seconds",
			"Read model latency in seconds by view.",
			[]string{"view"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),

		dbStats:   NewGaugeVec("lms_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("lms_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("lms_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.aggregateOps,
		m.aggregateLatency,
		m.aggregateConflicts,
		m.aggregateRetries,
		m.enrollments,
		m.lectureCompletions,
		m.pairLockWait,
		m.readLatency,
		m.dbStats,
		m.redisUp,
		m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// IncEnrollment counts "enrolled", "already_enrolled" and "unenrolled".
func (m *Metrics) IncEnrollment(result string) {
	if m == nil {
		return
	}
	m.enrollments.Inc(result)
}

func (m *Metrics) IncLectureCompletion(result string) {
	if m == nil {
		return
	}
	m.lectureCompletions.Inc(result)
}

func (m *Metrics) ObservePairLockWait(backend string, dur time.Duration) {
	if m == nil {
		return
	}
	m.pairLockWait.Observe(dur.Seconds(), backend)
}

func (m *Metrics) ObserveRead(view string, dur time.Duration) {
	if m == nil {
		return
	}
	m.readLatency.Observe(dur.Seconds(), view)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
