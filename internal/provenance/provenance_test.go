package provenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activeLabel = "urn:uuid:3b7f1a2e-9d2c-4c55-8f0e-1f6c2d7a9b10"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func loadStore(t *testing.T, name string) *ManifestStore {
	t.Helper()
	store, err := ParseStore(loadFixture(t, name))
	require.NoError(t, err)
	return store
}

func TestParseStoreRejectsInvalid(t *testing.T) {
	_, err := ParseStore([]byte("not json"))
	require.Error(t, err)

	_, err = ParseStore([]byte(`{"active_manifest":"x"}`))
	require.Error(t, err)
}

func TestStoreActiveLabel(t *testing.T) {
	store := loadStore(t, "store.json")
	assert.Equal(t, activeLabel, store.ActiveLabel())
	assert.Len(t, store.Labels(), 2)

	inactive := loadStore(t, "inactive.json")
	assert.Empty(t, inactive.ActiveLabel())
	_, ok := inactive.ActiveManifest()
	assert.False(t, ok)
}

func TestReduceProjectsActiveManifest(t *testing.T) {
	store := loadStore(t, "store.json")

	m, err := Reduce(store)
	require.NoError(t, err)

	assert.Equal(t, store.ActiveLabel(), m.Label)
	assert.Equal(t, "CA.jpg", m.Title)
	assert.Equal(t, "image/jpeg", m.Format)
	assert.Equal(t, "make_test_images", m.ClaimGenerator.Product)
	require.NotNil(t, m.Signature)
	assert.Equal(t, "C2PA Test Signing Cert", m.Signature.Issuer)
	assert.Equal(t, "2024-06-02T11:30:00+00:00", m.Signature.Time)
	assert.Equal(t, "Jane Photographer", m.Producer)

	require.Len(t, m.Actions, 2)
	assert.Equal(t, "c2pa.opened", m.Actions[0].Label)
	assert.Equal(t, "Make Test Images 0.33.1", m.Actions[0].SoftwareAgent)
	assert.Equal(t, "Generator", m.Actions[1].SoftwareAgent)
	assert.True(t, m.IsAIGenerated)

	require.Len(t, m.Ingredients, 2)
	assert.True(t, m.Ingredients[0].HasManifest)
	assert.Equal(t, 1, m.Ingredients[1].ValidationErrors)

	require.Len(t, m.ValidationStatus, 1)
	assert.Equal(t, "signingCredential.untrusted", m.ValidationStatus[0].Code)
}

func TestReduceWithoutActiveManifest(t *testing.T) {
	_, err := Reduce(loadStore(t, "inactive.json"))
	require.Error(t, err)

	_, err = Reduce(nil)
	require.Error(t, err)
}

func TestWorkerReduceAndDispose(t *testing.T) {
	r := NewL2Reducer()
	w := r.Start()

	m, err := w.Reduce(context.Background(), loadStore(t, "store.json"))
	require.NoError(t, err)
	assert.Equal(t, activeLabel, m.Label)

	w.Dispose()
	w.Dispose()

	_, err = w.Reduce(context.Background(), loadStore(t, "store.json"))
	assert.ErrorIs(t, err, ErrWorkerDisposed)

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker goroutine did not exit after Dispose")
	}
}

func TestWorkerReduceHonoursContext(t *testing.T) {
	w := NewL2Reducer().Start()
	defer w.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Reduce(ctx, loadStore(t, "store.json"))
	// 已取消的上下文可能在任务投递前或等待结果时被发现
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

type recordedCall struct {
	binary string
	args   []string
	ext    string
	data   []byte
}

func fakeRunner(calls *[]recordedCall, stdout, stderr []byte, err error) Runner {
	return func(_ context.Context, binary string, args ...string) ([]byte, []byte, error) {
		data, _ := os.ReadFile(args[0])
		*calls = append(*calls, recordedCall{binary: binary, args: args, ext: filepath.Ext(args[0]), data: data})
		return stdout, stderr, err
	}
}

func TestToolReadParsesStore(t *testing.T) {
	var calls []recordedCall
	tool := NewTool("/usr/local/bin/c2patool",
		WithTempDir(t.TempDir()),
		WithRunner(fakeRunner(&calls, loadFixture(t, "store.json"), nil, nil)))

	store, err := tool.Read(context.Background(), "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, activeLabel, store.ActiveLabel())

	require.Len(t, calls, 1)
	assert.Equal(t, "/usr/local/bin/c2patool", calls[0].binary)
	assert.Equal(t, ".jpg", calls[0].ext)
	assert.Equal(t, []byte("jpeg"), calls[0].data)
	assert.Len(t, calls[0].args, 1)
}

func TestToolReadWithoutManifest(t *testing.T) {
	var calls []recordedCall
	tool := NewTool("c2patool",
		WithTempDir(t.TempDir()),
		WithRunner(fakeRunner(&calls, nil, []byte("Error: No claim found"), errors.New("exit status 1"))))

	store, err := tool.Read(context.Background(), "image/png", pngHeader)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestToolReadFailure(t *testing.T) {
	var calls []recordedCall
	tool := NewTool("c2patool",
		WithTempDir(t.TempDir()),
		WithRunner(fakeRunner(&calls, nil, []byte("permission denied"), errors.New("exit status 2"))))

	_, err := tool.Read(context.Background(), "image/png", pngHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	_, err = tool.Read(context.Background(), "application/x-unknown-thing", pngHeader)
	require.Error(t, err)
}

func TestToolReportSniffsContentType(t *testing.T) {
	var calls []recordedCall
	tool := NewTool("c2patool",
		WithTempDir(t.TempDir()),
		WithRunner(fakeRunner(&calls, []byte(`{"manifests":{}}`), nil, nil)))

	out, err := tool.Report(context.Background(), pngHeader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"manifests":{}}`, string(out))

	require.Len(t, calls, 1)
	assert.Equal(t, ".png", calls[0].ext)
	assert.Equal(t, "--detailed", calls[0].args[1])
}

func TestToolRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	tool := NewTool("c2patool", WithTempDir(dir), WithRunner(fakeRunner(&calls, loadFixture(t, "store.json"), nil, nil)))

	_, err := tool.Read(context.Background(), "image/png", pngHeader)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
