package source

import (
	"context"
	"fmt"
	"os"

	"c2papreview/pkg/domain"
)

// Normalizer 将各种检查源归一化为字节 + MIME 类型
type Normalizer struct {
	readFile func(string) ([]byte, error)
}

// NewNormalizer 创建归一化器
func NewNormalizer() *Normalizer {
	return &Normalizer{readFile: os.ReadFile}
}

// Normalize 归一化检查源，要么完整成功，要么返回错误
//
// 内存数据直接透传，声明的类型不做内容嗅探（已知限制）。
func (n *Normalizer) Normalize(ctx context.Context, src InspectSource) (domain.ProcessedSource, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProcessedSource{}, err
	}
	switch s := src.(type) {
	case BlobSource:
		return domain.ProcessedSource{Bytes: s.Data, MimeType: s.DeclaredType, OriginURL: s.OriginURL}, nil
	case PathSource:
		return n.fromPath(s.Path, "", s.OriginURL)
	case PickerSource:
		return n.fromPath(s.Path, s.MimeType, s.OriginURL)
	case nil:
		return domain.ProcessedSource{}, domain.Errorf(domain.KindSourceUnavailable, "no source to inspect")
	default:
		return domain.ProcessedSource{}, domain.Errorf(domain.KindSourceUnavailable, "unsupported source %T", src)
	}
}

func (n *Normalizer) fromPath(path, mimeType, origin string) (domain.ProcessedSource, error) {
	if mimeType == "" {
		t, ok := MimeTypeForPath(path)
		if !ok {
			return domain.ProcessedSource{}, domain.Errorf(domain.KindUnknownMimeType, "MIME type not found for %q", path)
		}
		mimeType = t
	}
	data, err := n.readFile(path)
	if err != nil {
		return domain.ProcessedSource{}, domain.Wrap(domain.KindSourceUnavailable, err, fmt.Sprintf("read %q", path))
	}
	return domain.ProcessedSource{Bytes: data, MimeType: mimeType, OriginURL: origin}, nil
}
