package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"c2papreview/internal/ctxkeys"
	applog "c2papreview/internal/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSQLLoggerTagsTableAndDigest(t *testing.T) {
	var buf bytes.Buffer
	l := newSQLLogger(applog.NewWriter(&buf, zerolog.DebugLevel), reportTable("test_")).LogMode(logger.Info)

	ctx := withDigest(ctxkeys.WithTraceID(context.Background(), 7), "sha256:abc")
	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "报告缓存SQL", lines[0]["message"])
	assert.Equal(t, "test_report_records", lines[0]["table"])
	assert.Equal(t, "sha256:abc", lines[0]["digest"])
	assert.EqualValues(t, 7, lines[0]["traceId"])
	assert.Equal(t, "SELECT 1", lines[0]["sql"])
}

func TestSQLLoggerMissIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	l := newSQLLogger(applog.NewWriter(&buf, zerolog.DebugLevel), reportTable(""))
	sql := func() (string, int64) { return "SELECT * FROM report_records", 0 }

	l.Trace(context.Background(), time.Now(), sql, logger.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sql, errors.New("disk I/O error"))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "report_records", lines[0]["table"])
	assert.Equal(t, "disk I/O error", lines[0]["error"])
	assert.NotContains(t, lines[0], "digest")
}

func TestReportCacheLogsDigestOnMiss(t *testing.T) {
	var buf bytes.Buffer
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"), "test_", applog.NewWriter(&buf, zerolog.DebugLevel))
	require.NoError(t, err)
	c, err := NewReportCache(db, &countingReporter{}, nil)
	require.NoError(t, err)
	c.db = c.db.Session(&gorm.Session{Logger: c.db.Logger.LogMode(logger.Info)})
	buf.Reset()

	data := []byte("image bytes")
	_, err = c.Report(context.Background(), data)
	require.NoError(t, err)

	want := digest.FromBytes(data).String()
	var miss map[string]any
	for _, m := range decodeLines(t, &buf) {
		if m["message"] == "报告缓存未命中" {
			miss = m
			break
		}
	}
	require.NotNil(t, miss)
	assert.Equal(t, want, miss["digest"])
	assert.Equal(t, "test_report_records", miss["table"])
}
