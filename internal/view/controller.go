package view

import (
	"context"
	"sync"

	"c2papreview/internal/logger"
	"c2papreview/internal/sequence"
	"c2papreview/pkg/domain"
)

// Host 宿主窗口操作
type Host interface {
	SetSize(ctx context.Context, width, height int) error
	Platform(ctx context.Context) string
}

// Publisher 将视图状态推送给前端
type Publisher interface {
	Publish(ctx context.Context, state domain.ViewState)
}

// ErrorSink 统一的错误展示出口
type ErrorSink interface {
	ShowError(ctx context.Context, message string)
}

// Layout 窗口尺寸配置
type Layout struct {
	Width           int
	Height          int
	PlatformOffsets map[string]int
}

// Controller 视图状态机：Upload -> Loading -> Inspecting / ErrorShown
//
// 所有状态变更都先在同一把锁内确认令牌仍为最新。
type Controller struct {
	mu     sync.Mutex
	guard  *sequence.Guard
	state  domain.ViewState
	height int

	layout    Layout
	host      Host
	publisher Publisher
	sink      ErrorSink
	log       logger.Logger
}

// Config 配置选项
type Config struct {
	Guard     *sequence.Guard
	Layout    Layout
	Host      Host
	Publisher Publisher
	Sink      ErrorSink
	Logger    logger.Logger
}

// New 创建视图控制器，初始状态为 Upload
func New(cfg Config) *Controller {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	return &Controller{
		guard:     cfg.Guard,
		state:     domain.ViewState{Kind: domain.ViewUpload},
		layout:    cfg.Layout,
		host:      cfg.Host,
		publisher: cfg.Publisher,
		sink:      cfg.Sink,
		log:       l,
	}
}

// State 返回当前视图状态
func (c *Controller) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin 新的检查请求开始，进入 Loading
func (c *Controller) Begin(ctx context.Context, tok sequence.Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.IsCurrent(tok) {
		c.log.Debug("忽略过期的加载请求", "token", uint64(tok))
		return false
	}
	c.height = 0
	c.setState(ctx, domain.ViewState{Kind: domain.ViewLoading, Token: uint64(tok)})
	c.resize(ctx, c.layout.Height)
	return true
}

// Complete 处理管线结果；只有仍处于该令牌的 Loading 状态时才生效，
// 期间出现的外部错误会保持展示直到被关闭
func (c *Controller) Complete(ctx context.Context, tok sequence.Token, result domain.ManifestResult) bool {
	return c.CompleteWith(ctx, tok, result, nil)
}

// CompleteWith 与 Complete 相同，commit 在状态发布之前、持锁期间执行
func (c *Controller) CompleteWith(ctx context.Context, tok sequence.Token, result domain.ManifestResult, commit func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.awaiting(tok) {
		c.log.Debug("丢弃过期的检查结果", "token", uint64(tok), "current", uint64(c.guard.Current()),
			"state", c.state.Kind, "kind", domain.KindStaleResult, "error", result.Err)
		return false
	}
	if !result.OK() {
		err := error(domain.Errorf(domain.KindManifestReadFailed, "empty manifest result"))
		if result.Err != nil {
			err = result.Err
		}
		c.failLocked(ctx, tok, err)
		return true
	}
	if commit != nil {
		commit()
	}
	res := result
	c.setState(ctx, domain.ViewState{Kind: domain.ViewInspecting, Token: uint64(tok), Result: &res})
	return true
}

// Fail 展示错误并回到上传界面；过期请求的错误只写日志
func (c *Controller) Fail(ctx context.Context, tok sequence.Token, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.IsCurrent(tok) {
		c.log.Warn("过期请求的错误", "token", uint64(tok), "kind", domain.KindStaleResult, "error", err)
		return false
	}
	c.failLocked(ctx, tok, err)
	return true
}

// awaiting 令牌为最新且界面仍在等待该令牌的结果
func (c *Controller) awaiting(tok sequence.Token) bool {
	return c.guard.IsCurrent(tok) && c.state.Kind == domain.ViewLoading && c.state.Token == uint64(tok)
}

func (c *Controller) failLocked(ctx context.Context, tok sequence.Token, err error) {
	c.log.Error("检查失败", "token", uint64(tok), "kind", domain.KindOf(err), "error", err)
	c.height = 0
	c.setState(ctx, domain.ViewState{Kind: domain.ViewErrorShown, Token: uint64(tok), Message: err.Error()})
	c.resize(ctx, c.layout.Height)
	if c.sink != nil {
		c.sink.ShowError(ctx, err.Error())
	}
}

// Dismiss 关闭错误提示，回到上传界面
func (c *Controller) Dismiss(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != domain.ViewErrorShown {
		return
	}
	c.setState(ctx, domain.ViewState{Kind: domain.ViewUpload, Token: c.state.Token})
}

// Reset 直接回到上传界面（无错误）
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = 0
	c.setState(ctx, domain.ViewState{Kind: domain.ViewUpload, Token: uint64(c.guard.Current())})
	c.resize(ctx, c.layout.Height)
}

// ContentResized 清单摘要高度变化时调整窗口大小
func (c *Controller) ContentResized(ctx context.Context, tok sequence.Token, height int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.IsCurrent(tok) || c.state.Kind != domain.ViewInspecting || uint64(tok) != c.state.Token {
		return false
	}
	if height <= 0 || height == c.height {
		return false
	}
	c.height = height
	c.resize(ctx, height+c.platformOffset(ctx))
	return true
}

// ReportWindowError 窗口操作失败不影响检查本身，只记录并提示
func (c *Controller) ReportWindowError(ctx context.Context, err error) {
	werr := domain.Wrap(domain.KindWindowOperationFailed, err, "window operation failed")
	c.log.Warn("窗口操作失败", "error", werr)
	if c.sink != nil {
		c.sink.ShowError(ctx, werr.Error())
	}
}

func (c *Controller) platformOffset(ctx context.Context) int {
	if c.host == nil {
		return 0
	}
	return c.layout.PlatformOffsets[c.host.Platform(ctx)]
}

func (c *Controller) setState(ctx context.Context, s domain.ViewState) {
	c.state = s
	if c.publisher != nil {
		c.publisher.Publish(ctx, s)
	}
}

// resize 必须在持锁状态下调用
func (c *Controller) resize(ctx context.Context, height int) {
	if c.host == nil {
		return
	}
	if err := c.host.SetSize(ctx, c.layout.Width, height); err != nil {
		werr := domain.Wrap(domain.KindWindowOperationFailed, err, "resize window")
		c.log.Warn("调整窗口大小失败", "width", c.layout.Width, "height", height, "error", werr)
		if c.sink != nil {
			c.sink.ShowError(ctx, werr.Error())
		}
	}
}
