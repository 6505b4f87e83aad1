package wails

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"c2papreview/pkg/domain"
	"c2papreview/pkg/model"
)

// firstArg 将事件的第一个参数编码为 JSON，供 gjson 读取
func firstArg(data []interface{}) (gjson.Result, error) {
	if len(data) == 0 || data[0] == nil {
		return gjson.Result{}, fmt.Errorf("event carries no data")
	}
	if s, ok := data[0].(string); ok {
		return gjson.Result{Type: gjson.String, Str: s, Raw: fmt.Sprintf("%q", s)}, nil
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode event data: %w", err)
	}
	return gjson.ParseBytes(raw), nil
}

// ToEditRequest 解析 request-edit-info 事件，接受 {"windowId": "..."} 或窗口 ID 字符串
func ToEditRequest(data ...interface{}) (domain.EditRequest, error) {
	v, err := firstArg(data)
	if err != nil {
		return domain.EditRequest{}, err
	}
	id := v.Str
	if v.IsObject() {
		id = v.Get("windowId").String()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.EditRequest{}, fmt.Errorf("edit request without window id")
	}
	return domain.EditRequest{WindowID: domain.WindowID(id)}, nil
}

// ToWindowID 解析 editor-closed 事件
func ToWindowID(data ...interface{}) (domain.WindowID, error) {
	req, err := ToEditRequest(data...)
	return req.WindowID, err
}

// ToContentHeight 解析 content-height 事件 {"token": n, "height": n}
func ToContentHeight(data ...interface{}) (model.ContentHeight, error) {
	v, err := firstArg(data)
	if err != nil {
		return model.ContentHeight{}, err
	}
	if !v.IsObject() {
		return model.ContentHeight{}, fmt.Errorf("content height must be an object")
	}
	tok, height := v.Get("token"), v.Get("height")
	if tok.Type != gjson.Number || height.Type != gjson.Number {
		return model.ContentHeight{}, fmt.Errorf("content height requires numeric token and height")
	}
	if height.Int() <= 0 {
		return model.ContentHeight{}, fmt.Errorf("invalid content height %d", height.Int())
	}
	return model.ContentHeight{Token: tok.Uint(), Height: int(height.Int())}, nil
}

// ToPaths 解析路径数组事件
func ToPaths(data ...interface{}) []string {
	v, err := firstArg(data)
	if err != nil {
		return nil
	}
	if v.Type == gjson.String {
		return []string{v.Str}
	}
	var out []string
	for _, p := range v.Array() {
		if p.Type == gjson.String && strings.TrimSpace(p.Str) != "" {
			out = append(out, p.Str)
		}
	}
	return out
}

// ToDialogPattern 将扩展名列表转换为文件对话框的匹配模式
func ToDialogPattern(exts []string) string {
	parts := make([]string, 0, len(exts))
	for _, e := range exts {
		parts = append(parts, "*."+e)
	}
	return strings.Join(parts, ";")
}
