package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger adapts slog.Logger to gorm's logger.Interface.
type gormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*gormLogger)(nil)

func newGormLogger(logger *slog.Logger, slowThreshold time.Duration) *gormLogger {
	return &gormLogger{
		logger:        logger,
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		query, rows := fc()
		l.logger.ErrorContext(ctx, "query failed", "sql", truncate(query), "rows", rows, "elapsed", elapsed, "err", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.logger.WarnContext(ctx, "slow query", "sql", truncate(query), "rows", rows, "elapsed", elapsed)
	case l.logger.Enabled(ctx, slog.LevelDebug):
		query, rows := fc()
		l.logger.DebugContext(ctx, "query", "sql", truncate(query), "rows", rows, "elapsed", elapsed)
	}
}

// truncate keeps bulk insert statements from flooding the log.
func truncate(query string) string {
	const limit = 512
	if len(query) <= limit {
		return query
	}
	return query[:limit] + "..."
}
