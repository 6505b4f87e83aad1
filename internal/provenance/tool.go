package provenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/wailsapp/mimetype"

	"c2papreview/internal/logger"
	"c2papreview/internal/source"
)

// c2patool 在文件不含清单时输出的提示
var noManifestMarkers = []string{
	"no claim found",
	"jumbfnotfound",
	"no manifest",
	"provenancemissing",
}

// Runner 执行外部命令，返回标准输出与标准错误
type Runner func(ctx context.Context, binary string, args ...string) (stdout, stderr []byte, err error)

// Tool 基于 c2patool 可执行文件的外部引擎
type Tool struct {
	binary  string
	tempDir string
	run     Runner
	log     logger.Logger
}

// ToolOption 配置 Tool
type ToolOption func(*Tool)

// WithRunner 替换命令执行方式
func WithRunner(r Runner) ToolOption {
	return func(t *Tool) { t.run = r }
}

// WithTempDir 设置临时文件目录
func WithTempDir(dir string) ToolOption {
	return func(t *Tool) { t.tempDir = dir }
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) ToolOption {
	return func(t *Tool) { t.log = l }
}

// NewTool 创建外部引擎
func NewTool(binary string, opts ...ToolOption) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "c2patool"
	}
	t := &Tool{binary: binary, run: execRunner, log: logger.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Read 读取清单仓库，文件不含清单时返回 (nil, nil)
func (t *Tool) Read(ctx context.Context, mimeType string, data []byte) (*ManifestStore, error) {
	ext, ok := source.ExtensionFor(mimeType)
	if !ok {
		return nil, fmt.Errorf("c2patool read: unsupported MIME type %q", mimeType)
	}
	out, err := t.invoke(ctx, ext, data)
	if err != nil {
		if isNoManifest(err.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("c2patool read: %w", err)
	}
	if isNoManifest(string(out)) && !bytes.HasPrefix(bytes.TrimSpace(out), []byte("{")) {
		return nil, nil
	}
	store, err := ParseStore(out)
	if err != nil {
		return nil, fmt.Errorf("c2patool read: %w", err)
	}
	return store, nil
}

// Report 生成完整的清单报告 JSON，文件类型由内容签名判定
func (t *Tool) Report(ctx context.Context, data []byte) ([]byte, error) {
	ext := strings.TrimPrefix(mimetype.Detect(data).Extension(), ".")
	if ext == "" {
		return nil, errors.New("could not get MIME type for file")
	}
	out, err := t.invoke(ctx, ext, data, "--detailed")
	if err != nil {
		return nil, fmt.Errorf("c2patool report: %w", err)
	}
	return out, nil
}

// invoke 将数据写入临时文件后调用 c2patool
func (t *Tool) invoke(ctx context.Context, ext string, data []byte, extra ...string) ([]byte, error) {
	f, err := os.CreateTemp(t.tempDir, "c2pa-preview-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	args := append([]string{path}, extra...)
	t.log.Debug("调用 c2patool", "binary", t.binary, "args", strings.Join(args[1:], " "), "size", len(data))
	stdout, stderr, err := t.run(ctx, t.binary, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = strings.TrimSpace(string(stdout))
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout, nil
}

func isNoManifest(s string) bool {
	s = strings.ToLower(s)
	for _, m := range noManifestMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

