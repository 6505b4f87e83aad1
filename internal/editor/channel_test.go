package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c2papreview/pkg/domain"
)

type emission struct {
	id      domain.WindowID
	payload []byte
}

type fakeTransport struct {
	mu       sync.Mutex
	spawned  []domain.WindowSpec
	infos    []emission
	errs     []emission
	spawnErr error
	// onSpawn 模拟子窗口挂载后立即发出请求
	onSpawn func(domain.WindowSpec)
}

func (f *fakeTransport) Spawn(_ context.Context, spec domain.WindowSpec) error {
	f.mu.Lock()
	f.spawned = append(f.spawned, spec)
	hook, err := f.onSpawn, f.spawnErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(spec)
	}
	return nil
}

func (f *fakeTransport) SendEditInfo(_ context.Context, id domain.WindowID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, emission{id: id, payload: payload})
	return nil
}

func (f *fakeTransport) SendError(_ context.Context, id domain.WindowID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, emission{id: id, payload: []byte(message)})
	return nil
}

type fakeReporter struct {
	out   []byte
	err   error
	calls int
	got   []byte
}

func (r *fakeReporter) Report(_ context.Context, data []byte) ([]byte, error) {
	r.calls++
	r.got = data
	return r.out, r.err
}

type fakeSink struct{ messages []string }

func (s *fakeSink) ShowError(_ context.Context, msg string) { s.messages = append(s.messages, msg) }

const report = `{"active_manifest":"urn:uuid:1","manifests":{"urn:uuid:1":{"title":"a.jpg"}}}`

func newChannel(tr *fakeTransport, rep *fakeReporter, sink *fakeSink) *Channel {
	c := New(Config{Transport: tr, Reporter: rep, Sink: sink})
	c.newID = func() string { return "0000-test" }
	return c
}

func TestOpenSpawnsUniqueEditorWindow(t *testing.T) {
	tr := &fakeTransport{}
	c := New(Config{Transport: tr, Reporter: &fakeReporter{out: []byte(report)}})

	a, err := c.Open(context.Background(), []byte("img"))
	require.NoError(t, err)
	b, err := c.Open(context.Background(), []byte("img"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(string(a), "editor-"))
	require.Len(t, tr.spawned, 2)
	assert.Equal(t, domain.MainWindow, tr.spawned[0].Parent)
	assert.Equal(t, "#/editor/"+string(a), tr.spawned[0].URL)
	assert.Equal(t, 2, c.Sessions().Len())
}

func TestRequestEditInfoRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	rep := &fakeReporter{out: []byte(report)}
	c := newChannel(tr, rep, &fakeSink{})

	// 子窗口在 Spawn 返回之前就发出请求
	tr.onSpawn = func(spec domain.WindowSpec) {
		require.NoError(t, c.HandleRequest(ctx, domain.EditRequest{WindowID: spec.ID}))
	}

	id, err := c.Open(ctx, []byte("image-bytes"))
	require.NoError(t, err)

	require.Len(t, tr.infos, 1)
	assert.Equal(t, id, tr.infos[0].id)
	assert.Equal(t, []byte("image-bytes"), rep.got)

	var info domain.EditInfo
	require.NoError(t, json.Unmarshal(tr.infos[0].payload, &info))
	assert.True(t, info.Readonly)
	assert.JSONEq(t, report, string(info.Manifest))
	assert.Zero(t, c.Sessions().Len())
}

func TestRequestAnsweredOnlyOnce(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	rep := &fakeReporter{out: []byte(report)}
	c := newChannel(tr, rep, &fakeSink{})

	id, err := c.Open(ctx, []byte("img"))
	require.NoError(t, err)

	require.NoError(t, c.HandleRequest(ctx, domain.EditRequest{WindowID: id}))
	require.NoError(t, c.HandleRequest(ctx, domain.EditRequest{WindowID: id}))

	assert.Len(t, tr.infos, 1)
	assert.Equal(t, 1, rep.calls)
}

func TestRequestFromUnknownWindowIgnored(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	rep := &fakeReporter{out: []byte(report)}
	c := newChannel(tr, rep, &fakeSink{})

	_, err := c.Open(ctx, []byte("img"))
	require.NoError(t, err)

	require.NoError(t, c.HandleRequest(ctx, domain.EditRequest{WindowID: "editor-other"}))
	assert.Empty(t, tr.infos)
	assert.Zero(t, rep.calls)
	assert.Equal(t, 1, c.Sessions().Len())
}

func TestReportFailureGoesToEditorWindow(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	sink := &fakeSink{}
	c := newChannel(tr, &fakeReporter{err: errors.New("tool missing")}, sink)

	id, err := c.Open(ctx, []byte("img"))
	require.NoError(t, err)

	err = c.HandleRequest(ctx, domain.EditRequest{WindowID: id})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReportGenerationFailed)

	assert.Empty(t, tr.infos)
	require.Len(t, tr.errs, 1)
	assert.Equal(t, id, tr.errs[0].id)
	assert.Contains(t, string(tr.errs[0].payload), "tool missing")
	assert.Empty(t, sink.messages, "report errors stay in the editor window")
}

func TestUndecodableReportFails(t *testing.T) {
	ctx := context.Background()
	for name, out := range map[string][]byte{
		"invalid utf8": {0xff, 0xfe, '{', '}'},
		"not json":     []byte("Error: oops"),
		"json array":   []byte(`[1,2]`),
	} {
		t.Run(name, func(t *testing.T) {
			tr := &fakeTransport{}
			c := newChannel(tr, &fakeReporter{out: out}, &fakeSink{})
			id, err := c.Open(ctx, []byte("img"))
			require.NoError(t, err)

			err = c.HandleRequest(ctx, domain.EditRequest{WindowID: id})
			assert.ErrorIs(t, err, domain.ErrReportGenerationFailed)
			assert.Empty(t, tr.infos)
			assert.Len(t, tr.errs, 1)
		})
	}
}

func TestSpawnFailureSurfacesWindowError(t *testing.T) {
	tr := &fakeTransport{spawnErr: errors.New("webview unavailable")}
	sink := &fakeSink{}
	c := newChannel(tr, &fakeReporter{out: []byte(report)}, sink)

	_, err := c.Open(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWindowOperationFailed)
	require.Len(t, sink.messages, 1)
	assert.Contains(t, sink.messages[0], "webview unavailable")
	assert.Zero(t, c.Sessions().Len())
}

func TestOpenWithoutSource(t *testing.T) {
	c := newChannel(&fakeTransport{}, &fakeReporter{}, &fakeSink{})
	_, err := c.Open(context.Background(), nil)
	require.Error(t, err)
}

func TestCloseDropsSession(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	rep := &fakeReporter{out: []byte(report)}
	c := newChannel(tr, rep, &fakeSink{})

	id, err := c.Open(ctx, []byte("img"))
	require.NoError(t, err)
	c.Close(id)

	require.NoError(t, c.HandleRequest(ctx, domain.EditRequest{WindowID: id}))
	assert.Empty(t, tr.infos)
	assert.Zero(t, rep.calls)
}
