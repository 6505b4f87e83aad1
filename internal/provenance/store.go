// Package provenance 封装外部 C2PA 工具：读取清单仓库、生成报告，
// 以及将清单仓库精简为展示用的 L2 结构。
//
// 主要类型：
//   - ManifestStore: 清单仓库原始 JSON，字段通过 gjson 按需读取
//   - Reader / Reporter: 外部引擎的读取与报告接口
//   - Reducer / Worker: 精简步骤，Worker 使用后必须 Dispose
//   - Tool: 基于 c2patool 可执行文件的实现
package provenance

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
)

// ManifestStore 清单仓库
type ManifestStore struct {
	raw []byte
}

// ParseStore 解析清单仓库 JSON
func ParseStore(raw []byte) (*ManifestStore, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("manifest store is not valid JSON")
	}
	if !gjson.GetBytes(raw, "manifests").IsObject() {
		return nil, errors.New("manifest store has no manifests object")
	}
	return &ManifestStore{raw: append([]byte(nil), raw...)}, nil
}

// Raw 返回原始 JSON 副本
func (s *ManifestStore) Raw() []byte {
	return append([]byte(nil), s.raw...)
}

// ActiveLabel 返回当前生效清单的标识，不存在或未在 manifests 中登记时返回空
func (s *ManifestStore) ActiveLabel() string {
	label := gjson.GetBytes(s.raw, "active_manifest").String()
	if label == "" {
		return ""
	}
	if !s.Manifest(label).Exists() {
		return ""
	}
	return label
}

// ActiveManifest 返回当前生效清单
func (s *ManifestStore) ActiveManifest() (gjson.Result, bool) {
	label := s.ActiveLabel()
	if label == "" {
		return gjson.Result{}, false
	}
	return s.Manifest(label), true
}

// Manifest 按标识查找清单；标识中含有 ':' '.' 等路径字符，因此遍历比较
func (s *ManifestStore) Manifest(label string) gjson.Result {
	var found gjson.Result
	gjson.GetBytes(s.raw, "manifests").ForEach(func(key, value gjson.Result) bool {
		if key.String() == label {
			found = value
			return false
		}
		return true
	})
	return found
}

// Labels 返回仓库中全部清单标识
func (s *ManifestStore) Labels() []string {
	var labels []string
	gjson.GetBytes(s.raw, "manifests").ForEach(func(key, _ gjson.Result) bool {
		labels = append(labels, key.String())
		return true
	})
	return labels
}

// ValidationStatus 返回仓库级校验状态
func (s *ManifestStore) ValidationStatus() gjson.Result {
	return gjson.GetBytes(s.raw, "validation_status")
}

// Reader 外部引擎的读取操作，没有清单仓库时返回 (nil, nil)
type Reader interface {
	Read(ctx context.Context, mimeType string, data []byte) (*ManifestStore, error)
}

// Reporter 外部引擎的报告生成操作，返回 UTF-8 编码的 JSON
type Reporter interface {
	Report(ctx context.Context, data []byte) ([]byte, error)
}
