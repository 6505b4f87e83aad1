package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c2papreview/pkg/domain"
)

const fakeStore = `{
  "active_manifest": "urn:uuid:cli",
  "manifests": {
    "urn:uuid:cli": {
      "claim_generator": "cli-test/1.0",
      "title": "photo.jpg",
      "format": "image/jpeg",
      "signature_info": {"issuer": "Test CA", "time": "2024-06-01T10:00:00+00:00"},
      "assertions": []
    }
  }
}`

type cliEnv struct {
	configPath string
	filePath   string
}

// setupCLIEnv 写入一个假的 c2patool 脚本与对应配置
func setupCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake c2patool is a shell script")
	}
	dir := t.TempDir()

	tool := filepath.Join(dir, "c2patool")
	script := "#!/bin/sh\ncat <<'EOF'\n" + fakeStore + "\nEOF\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

	cfg := "c2patool:\n  binary: " + tool + "\n  temp_dir: " + dir + "\n" +
		"sqlite:\n  enabled: false\n" +
		"log:\n  writer: []\n"
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	filePath := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(filePath, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, 0o644))
	return cliEnv{configPath: configPath, filePath: filePath}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectCommandJSON(t *testing.T) {
	env := setupCLIEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "inspect", env.filePath, "--json")
	require.NoError(t, err)

	var res domain.ManifestResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Manifest)
	assert.Equal(t, "urn:uuid:cli", res.Manifest.Label)
	assert.Equal(t, "photo.jpg", res.Manifest.Title)
	assert.Equal(t, "Test CA", res.Manifest.Signature.Issuer)
}

func TestInspectCommandTable(t *testing.T) {
	env := setupCLIEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "inspect", env.filePath)
	require.NoError(t, err)
	assert.Contains(t, out, "photo.jpg")
	assert.Contains(t, out, "Issued by")
	assert.Contains(t, out, "Test CA")
}

func TestInspectCommandUnknownExtension(t *testing.T) {
	env := setupCLIEnv(t)
	odd := filepath.Join(filepath.Dir(env.filePath), "photo.xyz123")
	require.NoError(t, os.WriteFile(odd, []byte("x"), 0o644))

	_, err := runCLI(t, "--config", env.configPath, "inspect", odd)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownMimeType)
}

func TestReportCommand(t *testing.T) {
	env := setupCLIEnv(t)

	out, err := runCLI(t, "--config", env.configPath, "report", env.filePath)
	require.NoError(t, err)
	assert.JSONEq(t, fakeStore, out)
}

func TestManifestRowsIncludeVerifyLink(t *testing.T) {
	res := domain.ManifestResult{
		Manifest: &domain.L2Manifest{
			Title:          "a.jpg",
			ClaimGenerator: domain.ClaimGenerator{Value: "tool/1.0"},
			Ingredients:    []domain.Ingredient{{Title: "b.jpg", Format: "image/jpeg", HasManifest: true}},
		},
		VerifyURL: "https://contentcredentials.org/verify?source=x",
	}
	rows := manifestRows(res)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Verify", rows[len(rows)-1].Field)
	assert.Contains(t, renderManifest(res, false), "b.jpg · image/jpeg (has credentials)")
}
