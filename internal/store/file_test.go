package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golden-vcr/overlay/internal/logging"
)

func Test_FileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)
	testStore(t, s)
}

func Test_FileStore_layout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)

	err = s.Save(t.Context(), "chatStyles/somechannel", []byte(`{}`))
	assert.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "chatStyles", "somechannel.json"))
	assert.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(filepath.Join(root, "chatStyles"))
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func Test_FileStore_keyForPath(t *testing.T) {
	s := &FileStore{root: "/data"}
	tests := []struct {
		path   string
		want   string
		wantOk bool
	}{
		{"/data/chatStyles/foo.json", "chatStyles/foo", true},
		{"/data/chatStyles/.snapshot-12345", "", false},
		{"/data/chatStyles/foo.txt", "", false},
		{"/elsewhere/foo.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := s.keyForPath(tt.path)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_FileStore_Watch(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	require.NoError(t, err)
	require.NoError(t, s.Save(t.Context(), "chatStyles/somechannel", []byte(`{"fontSize":16}`)))

	var mu sync.Mutex
	changed := make([]string, 0)
	err = s.Watch(t.Context(), logging.Discard(), func(key string) {
		mu.Lock()
		defer mu.Unlock()
		changed = append(changed, key)
	})
	require.NoError(t, err)

	// Several writes in quick succession are reported once
	for _, size := range []string{"17", "18", "19"} {
		require.NoError(t, s.Save(t.Context(), "chatStyles/somechannel", []byte(`{"fontSize":`+size+`}`)))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(changed)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(2 * watchDebounce)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"chatStyles/somechannel"}, changed)
}
