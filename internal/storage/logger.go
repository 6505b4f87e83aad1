package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"c2papreview/internal/ctxkeys"
	applog "c2papreview/internal/logger"
)

// digestKey 当前缓存操作对应的内容摘要
type digestKey struct{}

func withDigest(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, digestKey{}, key)
}

func digestOf(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(digestKey{}).(string)
	return key
}

// reportTable 报告缓存表在给定前缀下的实际表名
func reportTable(prefix string) string {
	return schema.NamingStrategy{TablePrefix: prefix}.TableName("ReportRecord")
}

// sqlLogger 把 GORM 的日志转给应用日志，每条都带缓存表名、内容摘要与追踪 ID
type sqlLogger struct {
	log   applog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newSQLLogger(l applog.Logger, table string) *sqlLogger {
	return &sqlLogger{
		log:   l.With("component", "report-cache", "table", table),
		level: logger.Warn,
		slow:  200 * time.Millisecond,
	}
}

// LogMode 返回指定级别的副本
func (l *sqlLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *sqlLogger) fields(ctx context.Context) []any {
	kv := []any{"traceId", ctxkeys.TraceID(ctx)}
	if key := digestOf(ctx); key != "" {
		kv = append(kv, "digest", key)
	}
	return kv
}

func (l *sqlLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.log.Info(fmt.Sprintf(msg, data...), l.fields(ctx)...)
	}
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...), l.fields(ctx)...)
	}
}

func (l *sqlLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.log.Error(fmt.Sprintf(msg, data...), l.fields(ctx)...)
	}
}

// Trace 记录一次 SQL 执行；按摘要查不到记录是缓存未命中，只在 Info 级别下输出
func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	kv := append(l.fields(ctx),
		"sql", sql,
		"rows", rows,
		"timeMs", float64(elapsed.Nanoseconds())/1e6,
	)

	switch {
	case errors.Is(err, logger.ErrRecordNotFound):
		if l.level >= logger.Info {
			l.log.Debug("报告缓存未命中", kv...)
		}
	case err != nil && l.level >= logger.Error:
		l.log.Error("报告缓存SQL失败", append(kv, "error", err)...)
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		l.log.Warn("报告缓存SQL过慢", append(kv, "threshold", l.slow.String())...)
	case l.level >= logger.Info:
		l.log.Debug("报告缓存SQL", kv...)
	}
}
