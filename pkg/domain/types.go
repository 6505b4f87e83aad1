package domain

import "encoding/json"

// WindowID 窗口标识（主窗口为 "main"，编辑器窗口为 "editor-<uuid>"）
type WindowID string

// MainWindow 主窗口标识
const MainWindow WindowID = "main"

// ProcessedSource 归一化后的检查源：字节 + MIME 类型 + 可选来源 URL
type ProcessedSource struct {
	Bytes     []byte `json:"-"`
	MimeType  string `json:"mimeType"`
	OriginURL string `json:"originUrl,omitempty"`
}

// ManifestResult 清单管线的输出，成功时 Manifest 非空，失败时 Err 非空
type ManifestResult struct {
	Manifest  *L2Manifest `json:"manifest,omitempty"`
	VerifyURL string      `json:"verifyUrl"`
	Err       *Error      `json:"error,omitempty"`
}

// OK 判断结果是否成功
func (r ManifestResult) OK() bool {
	return r.Err == nil && r.Manifest != nil
}

// Failed 构造失败结果
func Failed(err error) ManifestResult {
	return ManifestResult{Err: AsError(err)}
}

// ViewKind 视图状态类型
type ViewKind string

const (
	ViewUpload     ViewKind = "upload"
	ViewLoading    ViewKind = "loading"
	ViewInspecting ViewKind = "inspecting"
	ViewErrorShown ViewKind = "error"
)

// ViewState 视图状态，只由视图控制器持有和修改
type ViewState struct {
	Kind    ViewKind        `json:"kind"`
	Token   uint64          `json:"token"`
	Result  *ManifestResult `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// EditRequest 编辑器窗口发出的信息请求
type EditRequest struct {
	WindowID WindowID `json:"windowId"`
}

// EditInfo 发送给编辑器窗口的清单信息
type EditInfo struct {
	Readonly bool            `json:"readonly"`
	Manifest json.RawMessage `json:"manifest"`
}

// WindowSpec 子窗口创建参数
type WindowSpec struct {
	ID     WindowID `json:"id"`
	URL    string   `json:"url"`
	Title  string   `json:"title"`
	Parent WindowID `json:"parent"`
}
