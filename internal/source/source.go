package source

// InspectSource 检查源，三种变体：内存数据、文件路径、文件选择器结果
type InspectSource interface {
	// Origin 来源 URL（如拖入的网页图片地址），没有时为空
	Origin() string
	// Describe 用于日志和错误信息的简短描述
	Describe() string

	sealed()
}

// BlobSource 已在内存中的数据（如拖放的文件）
type BlobSource struct {
	Data         []byte
	DeclaredType string
	OriginURL    string
}

// PathSource 文件系统路径（命令行、系统文件关联）
type PathSource struct {
	Path      string
	OriginURL string
}

// PickerSource 文件选择对话框的结果
type PickerSource struct {
	Path      string
	MimeType  string
	OriginURL string
}

// Blob 创建内存数据源
func Blob(data []byte, declaredType string) BlobSource {
	return BlobSource{Data: data, DeclaredType: declaredType}
}

// Path 创建路径源
func Path(path string) PathSource {
	return PathSource{Path: path}
}

// Picker 创建选择器源
func Picker(path, mimeType string) PickerSource {
	return PickerSource{Path: path, MimeType: mimeType}
}

func (s BlobSource) Origin() string   { return s.OriginURL }
func (s PathSource) Origin() string   { return s.OriginURL }
func (s PickerSource) Origin() string { return s.OriginURL }

func (s BlobSource) Describe() string {
	if s.OriginURL != "" {
		return s.OriginURL
	}
	return "<blob>"
}
func (s PathSource) Describe() string   { return s.Path }
func (s PickerSource) Describe() string { return s.Path }

func (BlobSource) sealed()   {}
func (PathSource) sealed()   {}
func (PickerSource) sealed() {}

// WithOrigin 附加来源 URL
func (s BlobSource) WithOrigin(url string) BlobSource {
	s.OriginURL = url
	return s
}

// WithOrigin 附加来源 URL
func (s PathSource) WithOrigin(url string) PathSource {
	s.OriginURL = url
	return s
}
