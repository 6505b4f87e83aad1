package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wailsapp/wails/v2/pkg/options"

	wailsadapter "c2papreview/internal/adapter/wails"
	"c2papreview/internal/config"
	"c2papreview/internal/editor"
	"c2papreview/internal/ingress"
	"c2papreview/internal/logger"
	"c2papreview/internal/sequence"
	"c2papreview/internal/service"
	"c2papreview/internal/source"
	"c2papreview/internal/view"
	api "c2papreview/pkg/api"
	"c2papreview/pkg/domain"
	"c2papreview/pkg/model"
)

// App 绑定到前端的应用对象，导出方法可在前端直接调用
type App struct {
	ctx context.Context

	svc     api.Service
	host    *wailsadapter.Host
	ingress *ingress.Adapter
	engine  *engine
	log     logger.Logger

	initialPath string
}

// NewApp 创建应用实例
func NewApp(cfg *config.Config, e *engine, l logger.Logger, initialPath string) *App {
	host := wailsadapter.NewHost(l.With("component", "host"))
	guard := sequence.NewGuard()

	vc := view.New(view.Config{
		Guard: guard,
		Layout: view.Layout{
			Width:           cfg.Window.Width,
			Height:          cfg.Window.Height,
			PlatformOffsets: cfg.Window.PlatformOffsets,
		},
		Host:      host,
		Publisher: host,
		Sink:      host,
		Logger:    l.With("component", "view"),
	})
	ch := editor.New(editor.Config{
		Transport: host,
		Reporter:  e.reporter,
		Sink:      host,
		Logger:    l.With("component", "editor"),
	})
	svc := api.NewService(service.Config{
		Guard:      guard,
		Normalizer: e.normalizer,
		Pipeline:   e.pipeline,
		View:       vc,
		Editor:     ch,
		Reporter:   e.reporter,
		Logger:     l.With("component", "service"),
	})

	return &App{
		ctx:         context.Background(),
		svc:         svc,
		host:        host,
		ingress:     ingress.New(svc, l.With("component", "ingress")),
		engine:      e,
		log:         l,
		initialPath: initialPath,
	}
}

// startup 在 Wails 启动时调用
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.host.Startup(ctx)

	err := a.host.Listen(wailsadapter.Handlers{
		Ready:   a.ingress.Ready,
		Inspect: a.ingress.Path,
		EditRequest: func(ctx context.Context, req domain.EditRequest) {
			if err := a.svc.HandleEditRequest(ctx, req); err != nil {
				a.log.Warn("编辑器请求处理失败", "windowID", string(req.WindowID), "error", err)
			}
		},
		EditorClosed: a.svc.CloseEditor,
		ContentHeight: func(ctx context.Context, h model.ContentHeight) {
			a.svc.ContentResized(ctx, sequence.Token(h.Token), h.Height)
		},
		Drop: a.ingress.Drop,
	})
	if err != nil {
		a.log.Error("订阅前端事件失败", "error", err)
	}

	// 命令行传入的路径在前端就绪后才会真正检查
	if a.initialPath != "" {
		a.ingress.Path(ctx, a.initialPath)
	}
	a.log.Info("应用已启动")
}

// shutdown 在窗口关闭时调用
func (a *App) shutdown(context.Context) {
	a.host.Shutdown()
	a.svc.Wait()
	if err := a.engine.Close(); err != nil {
		a.log.Warn("关闭资源失败", "error", err)
	}
	a.log.Info("应用已退出")
}

// onSecondInstance 再次启动时把参数中的文件交给当前实例
func (a *App) onSecondInstance(data options.SecondInstanceData) {
	a.ingress.SecondInstance(a.ctx, data.Args, data.WorkingDirectory)
}

// InspectBlob 检查前端直接传入的文件内容
func (a *App) InspectBlob(in model.BlobInput) model.InspectReply {
	src := source.Blob(in.Data, in.MimeType).WithOrigin(in.OriginURL)
	return model.InspectReply{Token: uint64(a.svc.Inspect(a.ctx, src))}
}

// InspectPath 检查本地文件
func (a *App) InspectPath(path string) {
	a.ingress.Path(a.ctx, path)
}

// PickFile 打开文件选择器并检查所选文件，取消时令牌为 0
func (a *App) PickFile() (model.InspectReply, error) {
	path, err := a.host.PickFile(a.ctx)
	if err != nil {
		return model.InspectReply{}, err
	}
	if path == "" {
		return model.InspectReply{}, nil
	}
	mimeType, _ := source.MimeTypeForPath(path)
	tok := a.svc.Inspect(a.ctx, source.Picker(path, mimeType))
	return model.InspectReply{Token: uint64(tok)}, nil
}

// ReportError 前端或系统发出的错误
func (a *App) ReportError(message string) {
	a.ingress.Error(a.ctx, message)
}

// DismissError 关闭错误提示
func (a *App) DismissError() {
	a.svc.Dismiss(a.ctx)
}

// ViewManifest 打开当前文件的 JSON 清单窗口
func (a *App) ViewManifest() (string, error) {
	id, err := a.svc.OpenManifestEditor(a.ctx)
	return string(id), err
}

// C2paReport 生成完整清单报告
func (a *App) C2paReport(data []byte) (string, error) {
	report, err := a.svc.C2paReport(a.ctx, data)
	if err != nil {
		return "", err
	}
	return string(report), nil
}

// OpenURL 在浏览器中打开验证链接，只允许 http(s)
func (a *App) OpenURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return a.host.OpenURL(a.ctx, u.String())
}

// State 当前视图状态
func (a *App) State() domain.ViewState {
	return a.svc.State()
}

// Filters 文件选择器允许的格式
func (a *App) Filters() []source.Filter {
	return source.Filters()
}
