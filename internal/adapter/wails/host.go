// Package wails 将检查服务接入 Wails 运行时：窗口尺寸、平台查询、事件、
// 对话框与文件拖放。
//
// Wails v2 只有一个原生窗口，编辑器"子窗口"由前端根据 window:open 事件
// 在同一个 WebView 内以路由形式打开，发往子窗口的事件都带有 windowId。
package wails

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/tidwall/sjson"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"c2papreview/internal/editor"
	"c2papreview/internal/logger"
	"c2papreview/internal/source"
	"c2papreview/pkg/domain"
	"c2papreview/pkg/model"
)

// 事件名
const (
	EventViewState     = "view-state"
	EventWindowOpen    = "window:open"
	EventReady         = "ready"
	EventInspect       = "inspect"
	EventEditorClosed  = "editor-closed"
	EventContentHeight = "content-height"
)

const dialogTitle = "C2PA Preview"

// ErrNotStarted 运行时上下文尚未就绪
var ErrNotStarted = errors.New("wails runtime not started")

// Runtime Wails 运行时中用到的部分
type Runtime interface {
	WindowSetSize(ctx context.Context, width, height int)
	Platform(ctx context.Context) string
	EventsEmit(ctx context.Context, name string, data ...interface{})
	EventsOn(ctx context.Context, name string, cb func(data ...interface{})) func()
	MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error)
	OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error)
	OnFileDrop(ctx context.Context, cb func(x, y int, paths []string))
	BrowserOpenURL(ctx context.Context, url string)
}

type liveRuntime struct{}

func (liveRuntime) WindowSetSize(ctx context.Context, w, h int) { runtime.WindowSetSize(ctx, w, h) }
func (liveRuntime) Platform(ctx context.Context) string         { return runtime.Environment(ctx).Platform }
func (liveRuntime) EventsEmit(ctx context.Context, name string, data ...interface{}) {
	runtime.EventsEmit(ctx, name, data...)
}
func (liveRuntime) EventsOn(ctx context.Context, name string, cb func(data ...interface{})) func() {
	return runtime.EventsOn(ctx, name, cb)
}
func (liveRuntime) MessageDialog(ctx context.Context, opts runtime.MessageDialogOptions) (string, error) {
	return runtime.MessageDialog(ctx, opts)
}
func (liveRuntime) OpenFileDialog(ctx context.Context, opts runtime.OpenDialogOptions) (string, error) {
	return runtime.OpenFileDialog(ctx, opts)
}
func (liveRuntime) OnFileDrop(ctx context.Context, cb func(x, y int, paths []string)) {
	runtime.OnFileDrop(ctx, cb)
}
func (liveRuntime) BrowserOpenURL(ctx context.Context, url string) { runtime.BrowserOpenURL(ctx, url) }

// Handlers 前端事件的处理函数
type Handlers struct {
	Ready         func(ctx context.Context)
	Inspect       func(ctx context.Context, path string)
	EditRequest   func(ctx context.Context, req domain.EditRequest)
	EditorClosed  func(id domain.WindowID)
	ContentHeight func(ctx context.Context, h model.ContentHeight)
	Drop          func(ctx context.Context, paths []string)
}

// Host 宿主窗口，实现 view.Host、view.Publisher、view.ErrorSink 与 editor.Transport
type Host struct {
	mu     sync.RWMutex
	ctx    context.Context
	rt     Runtime
	log    logger.Logger
	unsubs []func()
	closed bool
	dialog sync.WaitGroup
}

// Option 配置选项
type Option func(*Host)

// WithRuntime 替换运行时实现
func WithRuntime(rt Runtime) Option {
	return func(h *Host) { h.rt = rt }
}

// NewHost 创建宿主
func NewHost(l logger.Logger, opts ...Option) *Host {
	if l == nil {
		l = logger.NewNop()
	}
	h := &Host{rt: liveRuntime{}, log: l}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Startup 保存 Wails 提供的上下文，在 OnStartup 中调用
func (h *Host) Startup(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctx = ctx
}

func (h *Host) appCtx() (context.Context, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx, h.ctx != nil
}

// Listen 订阅前端事件与文件拖放
func (h *Host) Listen(hs Handlers) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	var unsubs []func()
	if hs.Ready != nil {
		unsubs = append(unsubs, h.rt.EventsOn(ctx, EventReady, func(...interface{}) {
			hs.Ready(ctx)
		}))
	}
	if hs.Inspect != nil {
		unsubs = append(unsubs, h.rt.EventsOn(ctx, EventInspect, func(data ...interface{}) {
			if paths := ToPaths(data...); len(paths) > 0 {
				hs.Inspect(ctx, paths[0])
			}
		}))
	}
	if hs.EditRequest != nil {
		unsubs = append(unsubs, h.rt.EventsOn(ctx, editor.EventRequestEditInfo, func(data ...interface{}) {
			req, err := ToEditRequest(data...)
			if err != nil {
				h.log.Warn("无效的编辑器请求", "error", err)
				return
			}
			hs.EditRequest(ctx, req)
		}))
	}
	if hs.EditorClosed != nil {
		unsubs = append(unsubs, h.rt.EventsOn(ctx, EventEditorClosed, func(data ...interface{}) {
			id, err := ToWindowID(data...)
			if err != nil {
				h.log.Warn("无效的窗口关闭事件", "error", err)
				return
			}
			hs.EditorClosed(id)
		}))
	}
	if hs.ContentHeight != nil {
		unsubs = append(unsubs, h.rt.EventsOn(ctx, EventContentHeight, func(data ...interface{}) {
			ch, err := ToContentHeight(data...)
			if err != nil {
				h.log.Debug("忽略无效的高度上报", "error", err)
				return
			}
			hs.ContentHeight(ctx, ch)
		}))
	}
	if hs.Drop != nil {
		h.rt.OnFileDrop(ctx, func(_, _ int, paths []string) {
			hs.Drop(ctx, paths)
		})
	}

	h.mu.Lock()
	h.unsubs = append(h.unsubs, unsubs...)
	h.mu.Unlock()
	return nil
}

// Shutdown 取消事件订阅并等待未关闭的对话框
func (h *Host) Shutdown() {
	h.mu.Lock()
	h.closed = true
	unsubs := h.unsubs
	h.unsubs = nil
	h.mu.Unlock()
	for _, u := range unsubs {
		if u != nil {
			u()
		}
	}
	h.dialog.Wait()
}

// SetSize 调整主窗口大小
func (h *Host) SetSize(_ context.Context, width, height int) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	h.rt.WindowSetSize(ctx, width, height)
	return nil
}

// Platform 返回运行平台（darwin、windows、linux）
func (h *Host) Platform(_ context.Context) string {
	ctx, ok := h.appCtx()
	if !ok {
		return ""
	}
	return h.rt.Platform(ctx)
}

// Publish 推送视图状态
func (h *Host) Publish(_ context.Context, state domain.ViewState) {
	if ctx, ok := h.appCtx(); ok {
		h.rt.EventsEmit(ctx, EventViewState, state)
	}
}

// ShowError 弹出错误对话框，不阻塞调用方；Shutdown 之后只写日志
func (h *Host) ShowError(_ context.Context, message string) {
	h.mu.Lock()
	ctx, closed := h.ctx, h.closed
	if ctx == nil || closed {
		h.mu.Unlock()
		h.log.Error("无法展示错误", "message", message, "started", ctx != nil, "closed", closed)
		return
	}
	// 在锁内登记，Shutdown 置位 closed 之后不会再有新的 Add
	h.dialog.Add(1)
	h.mu.Unlock()
	go func() {
		defer h.dialog.Done()
		_, err := h.rt.MessageDialog(ctx, runtime.MessageDialogOptions{
			Type:    runtime.ErrorDialog,
			Title:   dialogTitle,
			Message: message,
		})
		if err != nil {
			h.log.Warn("错误对话框打开失败", "message", message, "error", err)
		}
	}()
}

// Spawn 通知前端打开子窗口
func (h *Host) Spawn(_ context.Context, spec domain.WindowSpec) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	h.rt.EventsEmit(ctx, EventWindowOpen, spec)
	return nil
}

// SendEditInfo 发送 edit-info，附带目标窗口 ID
func (h *Host) SendEditInfo(_ context.Context, id domain.WindowID, payload []byte) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	msg, err := sjson.SetBytes(payload, "windowId", string(id))
	if err != nil {
		return err
	}
	h.rt.EventsEmit(ctx, editor.EventEditInfo, json.RawMessage(msg))
	return nil
}

// SendError 向指定编辑器窗口发送错误
func (h *Host) SendError(_ context.Context, id domain.WindowID, message string) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	h.rt.EventsEmit(ctx, editor.EventError, model.EditorError{WindowID: string(id), Message: message})
	return nil
}

// PickFile 打开文件选择器，取消时返回空字符串
func (h *Host) PickFile(_ context.Context) (string, error) {
	ctx, ok := h.appCtx()
	if !ok {
		return "", ErrNotStarted
	}
	var filters []runtime.FileFilter
	for _, f := range source.Filters() {
		filters = append(filters, runtime.FileFilter{DisplayName: f.Name, Pattern: ToDialogPattern(f.Extensions)})
	}
	return h.rt.OpenFileDialog(ctx, runtime.OpenDialogOptions{
		Title:   "Select a file to inspect",
		Filters: filters,
	})
}

// OpenURL 在系统浏览器中打开链接
func (h *Host) OpenURL(_ context.Context, url string) error {
	ctx, ok := h.appCtx()
	if !ok {
		return ErrNotStarted
	}
	h.rt.BrowserOpenURL(ctx, url)
	return nil
}
