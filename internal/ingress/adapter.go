// Package ingress 接收来自界面之外的检查请求：命令行参数、系统文件关联、
// 二次启动、拖放以及外部错误事件。
//
// 前端发出 ready 之前，只保留最新的一个请求，错误按顺序缓存；
// Ready 时先投递请求，再依次投递缓存的错误。
package ingress

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"c2papreview/internal/logger"
	"c2papreview/internal/sequence"
	"c2papreview/internal/source"
)

// Inspector 检查请求的接收方
type Inspector interface {
	Inspect(ctx context.Context, src source.InspectSource) sequence.Token
	ReportError(ctx context.Context, err error)
}

// Adapter 外部请求适配器
type Adapter struct {
	mu     sync.Mutex
	ready  bool
	queued source.InspectSource
	errs   []error

	target Inspector
	log    logger.Logger
}

// New 创建适配器
func New(target Inspector, l logger.Logger) *Adapter {
	if l == nil {
		l = logger.NewNop()
	}
	return &Adapter{target: target, log: l}
}

// Submit 提交检查请求，未就绪时只保留最新一个
func (a *Adapter) Submit(ctx context.Context, src source.InspectSource) {
	if src == nil {
		a.log.Warn("忽略空的检查请求")
		return
	}
	a.mu.Lock()
	if !a.ready {
		if a.queued != nil {
			a.log.Debug("覆盖排队中的检查请求", "previous", a.queued.Describe(), "next", src.Describe())
		}
		a.queued = src
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.target.Inspect(ctx, src)
}

// Path 命令行参数或系统文件关联传入的路径
func (a *Adapter) Path(ctx context.Context, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	a.Submit(ctx, source.Path(path))
}

// Drop 拖放文件，只检查第一个
func (a *Adapter) Drop(ctx context.Context, paths []string) {
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			a.Path(ctx, p)
			return
		}
	}
}

// SecondInstance 应用被再次启动（如通过文件关联打开），取第一个非选项参数
func (a *Adapter) SecondInstance(ctx context.Context, args []string, workingDir string) {
	path := FirstPathArg(args)
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) && workingDir != "" {
		path = filepath.Join(workingDir, path)
	}
	a.log.Info("收到二次启动的检查请求", "path", path)
	a.Path(ctx, path)
}

// Error 外部错误事件，未就绪时缓存
func (a *Adapter) Error(ctx context.Context, message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	err := errors.New(message)
	a.mu.Lock()
	if !a.ready {
		a.errs = append(a.errs, err)
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.target.ReportError(ctx, err)
}

// Ready 前端已就绪，投递排队的请求与缓存的错误
func (a *Adapter) Ready(ctx context.Context) {
	a.mu.Lock()
	if a.ready {
		a.mu.Unlock()
		return
	}
	a.ready = true
	queued := a.queued
	errs := a.errs
	a.queued = nil
	a.errs = nil
	a.mu.Unlock()

	a.log.Info("前端已就绪", "queued", queued != nil, "errors", len(errs))
	if queued != nil {
		a.target.Inspect(ctx, queued)
	}
	for _, err := range errs {
		a.target.ReportError(ctx, err)
	}
}

// IsReady 前端是否已就绪
func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// FirstPathArg 返回第一个不以 '-' 开头的参数
func FirstPathArg(args []string) string {
	for _, arg := range args {
		if arg == "" || strings.HasPrefix(arg, "-") {
			continue
		}
		return arg
	}
	return ""
}
