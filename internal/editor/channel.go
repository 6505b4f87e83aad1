// Package editor 实现主窗口与清单编辑器子窗口之间的请求/响应协议。
//
// 流程：主窗口生成唯一窗口 ID 并登记会话 -> 创建子窗口 -> 子窗口挂载后发出
// request-edit-info -> 主窗口为该窗口生成报告并回发 edit-info。
// 会话在子窗口创建之前登记，因此不会丢失子窗口的第一条请求；
// 回复只发往发出请求的那个窗口。
package editor

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"c2papreview/internal/ctxkeys"
	"c2papreview/internal/logger"
	"c2papreview/internal/provenance"
	"c2papreview/pkg/domain"
)

// 事件名
const (
	EventRequestEditInfo = "request-edit-info"
	EventEditInfo        = "edit-info"
	EventError           = "error"
)

// Transport 子窗口的创建与消息投递
type Transport interface {
	Spawn(ctx context.Context, spec domain.WindowSpec) error
	SendEditInfo(ctx context.Context, id domain.WindowID, payload []byte) error
	SendError(ctx context.Context, id domain.WindowID, message string) error
}

// ErrorSink 主窗口错误出口
type ErrorSink interface {
	ShowError(ctx context.Context, message string)
}

// Channel 跨窗口通道
type Channel struct {
	sessions  *Sessions
	transport Transport
	reporter  provenance.Reporter
	sink      ErrorSink
	log       logger.Logger
	newID     func() string
}

// Config 配置选项
type Config struct {
	Transport Transport
	Reporter  provenance.Reporter
	Sink      ErrorSink
	Logger    logger.Logger
}

// New 创建跨窗口通道
func New(cfg Config) *Channel {
	l := cfg.Logger
	if l == nil {
		l = logger.NewNop()
	}
	return &Channel{
		sessions:  NewSessions(l),
		transport: cfg.Transport,
		reporter:  cfg.Reporter,
		sink:      cfg.Sink,
		log:       l,
		newID:     uuid.NewString,
	}
}

// Sessions 返回会话表
func (c *Channel) Sessions() *Sessions { return c.sessions }

// Open 为当前展示的数据打开只读清单窗口
func (c *Channel) Open(ctx context.Context, src []byte) (domain.WindowID, error) {
	if len(src) == 0 {
		return "", domain.Errorf(domain.KindReportGenerationFailed, "no inspected file to show")
	}
	id := domain.WindowID("editor-" + c.newID())

	// 先登记再创建窗口，子窗口的首个请求一定能找到会话
	c.sessions.Create(id, src)

	spec := domain.WindowSpec{
		ID:     id,
		URL:    "#/editor/" + string(id),
		Title:  "c2pa-preview editor",
		Parent: domain.MainWindow,
	}
	if err := c.transport.Spawn(ctx, spec); err != nil {
		c.sessions.Delete(id)
		werr := domain.Wrap(domain.KindWindowOperationFailed, err, "open manifest window")
		c.log.Error("创建编辑器窗口失败", "windowID", string(id), "error", werr)
		if c.sink != nil {
			c.sink.ShowError(ctx, werr.Error())
		}
		return "", werr
	}
	return id, nil
}

// HandleRequest 响应子窗口的 request-edit-info，未登记的窗口 ID 直接忽略
func (c *Channel) HandleRequest(ctx context.Context, req domain.EditRequest) error {
	sess, ok := c.sessions.Take(req.WindowID)
	if !ok {
		c.log.Debug("忽略未知窗口的请求", "windowID", string(req.WindowID))
		return nil
	}
	l := c.log.With("windowID", string(req.WindowID), "traceId", ctxkeys.TraceID(ctx))

	payload, err := c.buildPayload(ctx, sess.Source)
	if err != nil {
		l.Error("生成清单报告失败", "error", err)
		c.sendError(ctx, req.WindowID, err)
		return err
	}
	if err := c.transport.SendEditInfo(ctx, req.WindowID, payload); err != nil {
		werr := domain.Wrap(domain.KindWindowOperationFailed, err, "send manifest to window")
		l.Error("发送清单信息失败", "error", werr)
		return werr
	}
	l.Info("清单信息已发送", "size", len(payload))
	return nil
}

// Close 子窗口关闭时销毁会话
func (c *Channel) Close(id domain.WindowID) {
	c.sessions.Delete(id)
}

// buildPayload 生成 {readonly: true, manifest: <report>}
func (c *Channel) buildPayload(ctx context.Context, src []byte) ([]byte, error) {
	report, err := c.reporter.Report(ctx, src)
	if err != nil {
		return nil, domain.Wrap(domain.KindReportGenerationFailed, err, "generate report")
	}
	if !utf8.Valid(report) {
		return nil, domain.Errorf(domain.KindReportGenerationFailed, "report is not valid UTF-8")
	}
	if !gjson.ValidBytes(report) || !gjson.ParseBytes(report).IsObject() {
		return nil, domain.Errorf(domain.KindReportGenerationFailed, "report is not a JSON object")
	}

	payload, err := sjson.SetBytes([]byte(`{}`), "readonly", true)
	if err == nil {
		payload, err = sjson.SetRawBytes(payload, "manifest", report)
	}
	if err != nil {
		return nil, domain.Wrap(domain.KindReportGenerationFailed, err, "encode edit info")
	}
	return payload, nil
}

func (c *Channel) sendError(ctx context.Context, id domain.WindowID, err error) {
	msg := err.Error()
	var de *domain.Error
	if !errors.As(err, &de) {
		msg = fmt.Sprintf("%s: %s", domain.KindReportGenerationFailed, msg)
	}
	if serr := c.transport.SendError(ctx, id, msg); serr != nil {
		c.log.Warn("向编辑器窗口发送错误失败", "windowID", string(id), "error", serr)
	}
}
