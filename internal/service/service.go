package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"c2papreview/internal/ctxkeys"
	"c2papreview/internal/editor"
	"c2papreview/internal/logger"
	"c2papreview/internal/pipeline"
	"c2papreview/internal/provenance"
	"c2papreview/internal/sequence"
	"c2papreview/internal/source"
	"c2papreview/internal/view"
	"c2papreview/pkg/domain"
)

// Service 检查服务：序号守卫 -> 归一化 -> 清单管线 -> 视图控制器
type Service struct {
	guard      *sequence.Guard
	normalizer *source.Normalizer
	pipeline   *pipeline.Pipeline
	view       *view.Controller
	editor     *editor.Channel
	reporter   provenance.Reporter
	log        logger.Logger

	mu         sync.Mutex
	current    *domain.ProcessedSource
	currentTok sequence.Token

	wg sync.WaitGroup
}

// Config 配置选项
type Config struct {
	Guard      *sequence.Guard
	Normalizer *source.Normalizer
	Pipeline   *pipeline.Pipeline
	View       *view.Controller
	Editor     *editor.Channel
	Reporter   provenance.Reporter
	Logger     logger.Logger
}

// New 创建检查服务
func New(cfg Config) *Service {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	n := cfg.Normalizer
	if n == nil {
		n = source.NewNormalizer()
	}
	return &Service{
		guard:      cfg.Guard,
		normalizer: n,
		pipeline:   cfg.Pipeline,
		view:       cfg.View,
		editor:     cfg.Editor,
		reporter:   cfg.Reporter,
		log:        l,
	}
}

// Inspect 开始新的检查并立即返回令牌，检查在后台执行；过期的结果会被丢弃
func (s *Service) Inspect(ctx context.Context, src source.InspectSource) sequence.Token {
	tok := s.guard.Begin()
	s.view.Begin(ctx, tok)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctxkeys.WithTraceID(ctx, uint64(tok)), tok, src)
	}()
	return tok
}

func (s *Service) run(ctx context.Context, tok sequence.Token, src source.InspectSource) {
	start := time.Now()
	l := s.log.With("traceId", uint64(tok), "source", describe(src))
	l.Info("开始检查")

	processed, err := s.normalizer.Normalize(ctx, src)
	if err != nil {
		s.view.Complete(ctx, tok, domain.Failed(err))
		return
	}

	res := s.pipeline.Inspect(ctx, processed)
	// 当前数据源在界面切换到 Inspecting 之前登记
	shown := s.view.CompleteWith(ctx, tok, res, func() { s.setCurrent(tok, processed) })
	if shown && res.OK() {
		l.Info("检查完成", "label", res.Manifest.Label, "duration", time.Since(start))
		return
	}
	if !s.guard.IsCurrent(tok) {
		l.Debug("检查结果已过期", "kind", domain.KindStaleResult, "duration", time.Since(start))
	}
}

// Wait 等待所有后台检查结束
func (s *Service) Wait() {
	s.wg.Wait()
}

// ReportError 外部错误：使用当前令牌展示，不影响序号；
// 进行中的检查随后完成时不会覆盖该错误
func (s *Service) ReportError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	tok := s.guard.Current()
	if tok == 0 {
		tok = s.guard.Begin()
	}
	s.view.Fail(ctx, tok, err)
}

// Dismiss 关闭错误提示
func (s *Service) Dismiss(ctx context.Context) {
	s.view.Dismiss(ctx)
}

// ContentResized 前端报告清单摘要高度
func (s *Service) ContentResized(ctx context.Context, tok sequence.Token, height int) {
	s.view.ContentResized(ctx, tok, height)
}

// State 返回当前视图状态
func (s *Service) State() domain.ViewState {
	return s.view.State()
}

// OpenManifestEditor 打开当前展示文件的 JSON 清单窗口
func (s *Service) OpenManifestEditor(ctx context.Context) (domain.WindowID, error) {
	src, ok := s.Current()
	if !ok {
		return "", domain.Errorf(domain.KindReportGenerationFailed, "no manifest is being displayed")
	}
	return s.editor.Open(ctx, src.Bytes)
}

// HandleEditRequest 响应编辑器窗口的信息请求
func (s *Service) HandleEditRequest(ctx context.Context, req domain.EditRequest) error {
	return s.editor.HandleRequest(ctx, req)
}

// CloseEditor 编辑器窗口关闭
func (s *Service) CloseEditor(id domain.WindowID) {
	s.editor.Close(id)
}

// C2paReport 生成完整清单报告（UTF-8 JSON）
func (s *Service) C2paReport(ctx context.Context, data []byte) ([]byte, error) {
	if s.reporter == nil {
		return nil, errors.New("report generation is not configured")
	}
	report, err := s.reporter.Report(ctx, data)
	if err != nil {
		return nil, domain.Wrap(domain.KindReportGenerationFailed, err, "generate report")
	}
	return report, nil
}

// Current 返回当前展示的数据源
func (s *Service) Current() (domain.ProcessedSource, bool) {
	st := s.view.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || st.Kind != domain.ViewInspecting || st.Token != uint64(s.currentTok) {
		return domain.ProcessedSource{}, false
	}
	return *s.current, true
}

func (s *Service) setCurrent(tok sequence.Token, p domain.ProcessedSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok < s.currentTok {
		return
	}
	s.currentTok = tok
	s.current = &p
}

func describe(src source.InspectSource) string {
	if src == nil {
		return "<nil>"
	}
	return src.Describe()
}
