package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"c2papreview/internal/logger"
	"c2papreview/internal/provenance"
)

// ReportRecord 按内容摘要缓存的清单报告
type ReportRecord struct {
	Digest    string `gorm:"primaryKey;size:100"`
	Report    []byte
	Size      int
	CreatedAt time.Time
}

// Open 打开 SQLite 数据库
func Open(dsn, prefix string, l logger.Logger) (*gorm.DB, error) {
	if l == nil {
		l = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         newSQLLogger(l, reportTable(prefix)),
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	return db, nil
}

// ReportCache 带缓存的报告生成器，相同内容的并发请求只调用一次外部工具
type ReportCache struct {
	db    *gorm.DB
	next  provenance.Reporter
	group singleflight.Group
	log   logger.Logger
}

// NewReportCache 创建报告缓存并完成表结构迁移
func NewReportCache(db *gorm.DB, next provenance.Reporter, l logger.Logger) (*ReportCache, error) {
	if l == nil {
		l = logger.NewNop()
	}
	if err := db.AutoMigrate(&ReportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate report cache: %w", err)
	}
	return &ReportCache{db: db, next: next, log: l}, nil
}

// Report 先查缓存，未命中时生成报告并写入缓存
func (c *ReportCache) Report(ctx context.Context, data []byte) ([]byte, error) {
	key := digest.FromBytes(data).String()
	ctx = withDigest(ctx, key)

	if report, ok := c.lookup(ctx, key); ok {
		c.log.Debug("报告缓存命中", "digest", key)
		return report, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// 获取 singleflight 后再确认一次缓存
		if report, ok := c.lookup(ctx, key); ok {
			return report, nil
		}
		report, err := c.next.Report(ctx, data)
		if err != nil {
			return nil, err
		}
		rec := ReportRecord{Digest: key, Report: report, Size: len(data)}
		if err := c.db.WithContext(ctx).Save(&rec).Error; err != nil {
			c.log.Warn("写入报告缓存失败", "digest", key, "error", err)
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("合并并发报告请求", "digest", key)
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Purge 清空缓存
func (c *ReportCache) Purge(ctx context.Context) error {
	return c.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ReportRecord{}).Error
}

// Len 返回缓存条目数
func (c *ReportCache) Len(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&ReportRecord{}).Count(&n).Error
	return n, err
}

func (c *ReportCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	var rec ReportRecord
	err := c.db.WithContext(ctx).Where("digest = ?", key).Take(&rec).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.log.Warn("读取报告缓存失败", "digest", key, "error", err)
		}
		return nil, false
	}
	return rec.Report, true
}
