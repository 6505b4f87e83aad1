package model

// BlobInput 前端直接传入的文件内容（剪贴板、网页拖拽等）
type BlobInput struct {
	Data      []byte `json:"data"`
	MimeType  string `json:"mimeType"`
	OriginURL string `json:"originUrl,omitempty"`
}

// InspectReply 检查请求的回执，前端用令牌对应后续的高度上报
type InspectReply struct {
	Token uint64 `json:"token"`
}

// ContentHeight 清单摘要的渲染高度
type ContentHeight struct {
	Token  uint64 `json:"token"`
	Height int    `json:"height"`
}

// EditorError 发往编辑器窗口的错误
type EditorError struct {
	WindowID string `json:"windowId"`
	Message  string `json:"message"`
}

// ManifestRow 命令行表格中的一行
type ManifestRow struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
