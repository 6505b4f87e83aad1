package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"c2papreview/internal/ctxkeys"
	"c2papreview/internal/logger"
	"c2papreview/internal/provenance"
	"c2papreview/pkg/domain"
)

// Pipeline 清单管线：读取清单仓库 -> 检查生效清单 -> 精简为展示结构
type Pipeline struct {
	reader        provenance.Reader
	reducer       provenance.Reducer
	verifyBaseURL string
	log           logger.Logger
}

// Config 配置选项
type Config struct {
	Reader        provenance.Reader
	Reducer       provenance.Reducer
	VerifyBaseURL string
	Logger        logger.Logger
}

// New 创建清单管线
func New(cfg Config) *Pipeline {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	return &Pipeline{
		reader:        cfg.Reader,
		reducer:       cfg.Reducer,
		verifyBaseURL: cfg.VerifyBaseURL,
		log:           l,
	}
}

// Inspect 执行清单管线，结果只会是成功或带分类错误的失败
func (p *Pipeline) Inspect(ctx context.Context, processed domain.ProcessedSource) domain.ManifestResult {
	start := time.Now()
	l := p.log.With("traceId", ctxkeys.TraceID(ctx), "mimeType", processed.MimeType)

	store, err := p.reader.Read(ctx, processed.MimeType, processed.Bytes)
	if err != nil {
		l.Warn("读取清单仓库失败", "error", err)
		return domain.Failed(domain.Wrap(domain.KindManifestReadFailed, err, "Error reading manifest"))
	}
	if store == nil {
		return domain.Failed(domain.Errorf(domain.KindManifestStoreMissing, "Manifest not found for file"))
	}
	if store.ActiveLabel() == "" {
		return domain.Failed(domain.Errorf(domain.KindNoActiveManifest, "File has content credentials but no active manifest"))
	}

	manifest, err := p.reduce(ctx, store)
	if err != nil {
		l.Warn("精简清单失败", "error", err)
		return domain.Failed(domain.Wrap(domain.KindManifestReadFailed, err, "Error preparing manifest"))
	}

	l.Debug("清单管线完成", "label", manifest.Label, "duration", time.Since(start))
	return domain.ManifestResult{
		Manifest:  manifest,
		VerifyURL: p.VerifyURL(processed.OriginURL),
	}
}

// reduce 获取独占 Worker，无论成功失败都在返回前释放
func (p *Pipeline) reduce(ctx context.Context, store *provenance.ManifestStore) (*domain.L2Manifest, error) {
	worker := p.reducer.Start()
	defer worker.Dispose()
	return worker.Reduce(ctx, store)
}

// VerifyURL 根据来源 URL 生成在线校验链接，本地文件没有公开来源时返回空
func (p *Pipeline) VerifyURL(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" || p.verifyBaseURL == "" {
		return ""
	}
	return p.verifyBaseURL + "?source=" + url.QueryEscape(origin)
}
