package notify

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_PostAndExpire(t *testing.T) {
	b := NewBoard(time.Hour)
	defer b.Stop()

	n := b.Post(LevelSuccess, "Weekly bookings uploaded successfully.")
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, n.ID, cur.ID)
	assert.Equal(t, LevelSuccess, cur.Level)
	assert.Equal(t, time.Hour, cur.ExpiresAt.Sub(cur.PostedAt))

	assert.True(t, b.Expire(n.ID))
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBoard_StaleTokenDoesNotClearNewerNotice(t *testing.T) {
	b := NewBoard(time.Hour)
	defer b.Stop()

	first := b.Post(LevelInfo, "first")
	second := b.Post(LevelWarn, "second")
	require.Greater(t, second.ID, first.ID)

	assert.False(t, b.Expire(first.ID))
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Message)
}

func TestBoard_TimerClears(t *testing.T) {
	b := NewBoard(20 * time.Millisecond)

	var mu sync.Mutex
	var events []bool
	done := make(chan struct{})
	b.OnChange = func(_ Notice, ok bool) {
		mu.Lock()
		events = append(events, ok)
		mu.Unlock()
		if !ok {
			close(done)
		}
	}

	b.Post(LevelError, "boom")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notice was not cleared")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, events)
	_, ok := b.Current()
	assert.False(t, ok)
}

func TestBoard_SupersededTimerIsStopped(t *testing.T) {
	b := NewBoard(200 * time.Millisecond)
	defer b.Stop()

	b.Post(LevelInfo, "old")
	time.Sleep(150 * time.Millisecond)
	latest := b.Post(LevelInfo, "new")
	time.Sleep(100 * time.Millisecond)

	// The old timer would have fired by now; the new notice must remain.
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, latest.ID, cur.ID)
}

func TestBoard_Dismiss(t *testing.T) {
	b := NewBoard(time.Hour)
	b.Post(LevelInfo, "x")
	b.Dismiss()
	_, ok := b.Current()
	assert.False(t, ok)
	b.Dismiss()
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestNotice_JSONRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelInfo, LevelSuccess, LevelWarn, LevelError} {
		t.Run(level.String(), func(t *testing.T) {
			n := New(level, "Upload failed", time.Second)

			raw, err := json.Marshal(n)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"level":"`+level.String()+`"`)

			var got Notice
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, n.ID, got.ID)
			assert.Equal(t, level, got.Level)
			assert.Equal(t, n.Message, got.Message)
		})
	}
}

func TestLevel_UnmarshalUnknown(t *testing.T) {
	var l Level
	require.Error(t, json.Unmarshal([]byte(`"fatal"`), &l))
}
