package main

import (
	"fmt"

	"c2papreview/internal/config"
	"c2papreview/internal/logger"
	"c2papreview/internal/pipeline"
	"c2papreview/internal/provenance"
	"c2papreview/internal/source"
	"c2papreview/internal/storage"
)

// engine GUI 与命令行共用的检查组件
type engine struct {
	normalizer *source.Normalizer
	pipeline   *pipeline.Pipeline
	reducer    *provenance.L2Reducer
	reporter   provenance.Reporter
	closeDB    func() error
}

// newEngine 按配置组装外部工具、报告缓存与清单管线
func newEngine(cfg *config.Config, l logger.Logger) (*engine, error) {
	tool := provenance.NewTool(cfg.C2paTool.Binary,
		provenance.WithTempDir(cfg.C2paTool.TempDir),
		provenance.WithLogger(l.With("component", "c2patool")),
	)

	e := &engine{
		normalizer: source.NewNormalizer(),
		reducer:    provenance.NewL2Reducer(),
		reporter:   tool,
		closeDB:    func() error { return nil },
	}

	if cfg.Sqlite.Enabled {
		db, err := storage.Open(cfg.Sqlite.Dsn, cfg.Sqlite.Prefix, l.With("component", "storage"))
		if err != nil {
			return nil, err
		}
		cache, err := storage.NewReportCache(db, tool, l.With("component", "reports"))
		if err != nil {
			return nil, err
		}
		e.reporter = cache
		e.closeDB = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("get sql db: %w", err)
			}
			return sqlDB.Close()
		}
	}

	e.pipeline = pipeline.New(pipeline.Config{
		Reader:        tool,
		Reducer:       e.reducer,
		VerifyBaseURL: cfg.Verify.BaseURL,
		Logger:        l.With("component", "pipeline"),
	})
	return e, nil
}

// Close 等待精简 Worker 退出并关闭数据库
func (e *engine) Close() error {
	e.reducer.Wait()
	return e.closeDB()
}
