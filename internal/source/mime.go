package source

import (
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

// Filter 文件选择器过滤分组
type Filter struct {
	Name       string
	Extensions []string
}

// 文件选择器允许的扩展名
var filters = []Filter{
	{Name: "Image", Extensions: []string{"avif", "c2pa", "dng", "gif", "heic", "heif", "jpg", "jpeg", "png", "svg", "tif", "tiff", "webp"}},
	{Name: "Video", Extensions: []string{"avi", "mp4", "mov"}},
	{Name: "Audio", Extensions: []string{"m4a", "mp3", "wav"}},
	{Name: "Document", Extensions: []string{"pdf"}},
}

// 扩展名 -> MIME 类型，覆盖所有可选格式
var mimeTypes = map[string]string{
	"avif": "image/avif",
	"c2pa": "application/c2pa",
	"dng":  "image/x-adobe-dng",
	"gif":  "image/gif",
	"heic": "image/heic",
	"heif": "image/heif",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"webp": "image/webp",
	"avi":  "video/x-msvideo",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"pdf":  "application/pdf",
}

// 反向查找时优先使用的扩展名
var preferredExt = map[string]string{
	"image/jpeg": "jpg",
	"image/tiff": "tif",
}

// Filters 返回文件选择器过滤分组
func Filters() []Filter {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = Filter{Name: f.Name, Extensions: append([]string(nil), f.Extensions...)}
	}
	return out
}

// Extensions 返回全部允许的扩展名（已排序）
func Extensions() []string {
	var exts []string
	for _, f := range filters {
		exts = append(exts, f.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// MimeTypeForPath 按扩展名解析 MIME 类型
func MimeTypeForPath(path string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "", false
	}
	if t, ok := mimeTypes[ext]; ok {
		return t, true
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt, true
		}
	}
	return "", false
}

// ExtensionFor 返回 MIME 类型对应的扩展名（不含点）
func ExtensionFor(mimeType string) (string, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if ext, ok := preferredExt[mimeType]; ok {
		return ext, true
	}
	for ext, t := range mimeTypes {
		if t == mimeType {
			return ext, true
		}
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], "."), true
	}
	return "", false
}
