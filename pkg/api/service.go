package api

import (
	"context"

	"c2papreview/internal/service"
	"c2papreview/internal/sequence"
	"c2papreview/internal/source"
	"c2papreview/pkg/domain"
)

// Service 服务接口
type Service interface {
	// Inspect 开始检查，返回本次请求的令牌
	Inspect(ctx context.Context, src source.InspectSource) sequence.Token

	// ReportError 展示外部错误
	ReportError(ctx context.Context, err error)

	// Dismiss 关闭错误提示
	Dismiss(ctx context.Context)

	// ContentResized 清单摘要高度变化
	ContentResized(ctx context.Context, tok sequence.Token, height int)

	// State 当前视图状态
	State() domain.ViewState

	// OpenManifestEditor 打开 JSON 清单窗口
	OpenManifestEditor(ctx context.Context) (domain.WindowID, error)

	// HandleEditRequest 响应编辑器窗口的请求
	HandleEditRequest(ctx context.Context, req domain.EditRequest) error

	// CloseEditor 编辑器窗口关闭
	CloseEditor(id domain.WindowID)

	// C2paReport 生成完整清单报告
	C2paReport(ctx context.Context, data []byte) ([]byte, error)

	// Wait 等待进行中的检查结束
	Wait()
}

// NewService 创建并返回服务接口实现
func NewService(cfg service.Config) Service {
	return service.New(cfg)
}
