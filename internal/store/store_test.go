package store

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/walink/internal/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "walink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveRunAndRecentRuns(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	first := &types.Outcome{
		RunID: "run-1", Method: types.MethodQR, Status: types.StatusLinked, Session: "abc123",
		Code: "data:image/png;base64,AAAA", StartedAt: base, FinishedAt: base.Add(time.Second),
	}
	second := &types.Outcome{
		RunID: "run-2", Method: types.MethodPairing, Phone: "628", Status: types.StatusRemoteFailure,
		Message: "invalid number", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(2 * time.Minute),
	}
	require.NoError(t, s.SaveRun(first))
	require.NoError(t, s.SaveRun(second))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, types.StatusRemoteFailure, runs[0].Status)
	assert.Equal(t, "invalid number", runs[0].Message)
	assert.Equal(t, "628", runs[0].Phone)

	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, "abc123", runs[1].Session)
	assert.Empty(t, runs[1].Code, "codes are not stored")
	assert.True(t, runs[1].StartedAt.Equal(base))

	runs, err = s.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRunUpserts(t *testing.T) {
	s := newStore(t)
	now := time.Now()
	o := &types.Outcome{RunID: "run-1", Method: types.MethodQR, Status: types.StatusError, StartedAt: now, FinishedAt: now}
	require.NoError(t, s.SaveRun(o))

	o.Status = types.StatusLinked
	require.NoError(t, s.SaveRun(o))

	runs, err := s.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.StatusLinked, runs[0].Status)
}

func TestBotSnapshots(t *testing.T) {
	s := newStore(t)

	bots, at, err := s.LatestBots()
	require.NoError(t, err)
	assert.Empty(t, bots)
	assert.True(t, at.IsZero())

	t1 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)
	require.NoError(t, s.SaveBots([]types.Bot{{ID: "1", SentCount: 3, Status: types.BotActive}}, t1))
	require.NoError(t, s.SaveBots([]types.Bot{
		{ID: "1", SentCount: 5, Status: types.BotActive},
		{ID: "2", SentCount: 0, Status: types.BotSuspended},
	}, t2))

	bots, at, err = s.LatestBots()
	require.NoError(t, err)
	assert.True(t, at.Equal(t2))
	assert.Equal(t, []types.Bot{
		{ID: "1", SentCount: 5, Status: types.BotActive},
		{ID: "2", SentCount: 0, Status: types.BotSuspended},
	}, bots)
}

func TestSaveQRImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	dir := filepath.Join(t.TempDir(), "qr")

	path, err := SaveQRImage(dir, dataURL)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestSaveQRImageRejectsOtherPayloads(t *testing.T) {
	dir := t.TempDir()
	for _, s := range []string{
		"12345678",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png,rawbytes",
		"data:image/png;base64,!!!",
	} {
		_, err := SaveQRImage(dir, s)
		assert.ErrorIs(t, err, ErrNotDataURL, s)
	}
}
