package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// LogWriter persists a batch of log rows.
type LogWriter interface {
	WriteLogs(ctx context.Context, batch []models.ServiceLog) error
}

// GormLogWriter writes rows into the service_logs table.
type GormLogWriter struct {
	DB *gorm.DB
}

func (w GormLogWriter) WriteLogs(ctx context.Context, batch []models.ServiceLog) error {
	return w.DB.WithContext(ctx).CreateInBatches(batch, defaultBatchSize).Error
}

// DBSink is an slog.Handler that buffers ERROR+ records and writes them in
// batches, either every flush interval or as soon as a batch fills up.
type DBSink struct {
	*sinkCore
	attrs []slog.Attr
}

type sinkCore struct {
	writer    LogWriter
	batchSize int

	mu      sync.Mutex
	buffer  []models.ServiceLog
	stopped bool

	ticker   *time.Ticker
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDBSink(writer LogWriter, batchSize int, interval time.Duration) *DBSink {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	core := &sinkCore{
		writer:    writer,
		batchSize: batchSize,
		buffer:    make([]models.ServiceLog, 0, batchSize),
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	core.wg.Add(1)
	go core.flushLoop()
	return &DBSink{sinkCore: core}
}

func (c *sinkCore) flushLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ticker.C:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *sinkCore) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]models.ServiceLog, 0, c.batchSize)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.writer.WriteLogs(ctx, batch); err != nil {
		// Warn so the failure itself is not fed back into the sink.
		slog.Warn("failed to flush service logs", "error", err, "count", len(batch))
	}
}

// Stop flushes whatever is buffered and waits for pending writes to finish.
// Records handled after Stop are dropped.
func (c *sinkCore) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()

		c.ticker.Stop()
		close(c.done)
		c.wg.Wait()
	})
}

// Enabled only handles ERROR and above.
func (s *DBSink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (s *DBSink) Handle(_ context.Context, record slog.Record) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	entry := models.ServiceLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "email":
			if e := a.Value.String(); e != "" {
				entry.Email = &e
			}
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			switch a.Value.Kind() {
			case slog.KindFloat64:
				entry.LatencyMs = int(math.Round(a.Value.Float64()))
			case slog.KindInt64:
				entry.LatencyMs = int(a.Value.Int64())
			case slog.KindDuration:
				entry.LatencyMs = int(a.Value.Duration().Milliseconds())
			}
		default:
			extra[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range s.attrs {
		apply(a)
	}
	record.Attrs(apply)

	entry.Extra = datatypes.JSON("{}")
	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.buffer = append(s.buffer, entry)
	full := len(s.buffer) >= s.batchSize
	if full {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if full {
		go func() {
			defer s.wg.Done()
			s.flush()
		}()
	}
	return nil
}

// WithAttrs keeps logger-scoped attributes so they reach the stored row.
// Groups are flattened.
func (s *DBSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, attrs...)
	return &DBSink{sinkCore: s.sinkCore, attrs: merged}
}

func (s *DBSink) WithGroup(string) slog.Handler {
	return s
}
