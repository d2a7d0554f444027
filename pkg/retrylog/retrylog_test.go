package retrylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"museumscraper/pkg/models"
)

func TestAppendAndReplay(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "log.txt"))

	for _, id := range []models.ObjectID{"102", "7", "102"} {
		require.NoError(t, log.Append(id))
	}

	ids, err := log.Replay()
	require.NoError(t, err)
	assert.Equal(t, []models.ObjectID{"102", "7", "102"}, ids)

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t, "102\n7\n102\n", string(data))
}

func TestReplayMissingFile(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "missing.txt"))

	ids, err := log.Replay()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReplaySkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\n\n  \n2\r\n3"), 0644))

	ids, err := New(path).Replay()
	require.NoError(t, err)
	assert.Equal(t, []models.ObjectID{"1", "2", "3"}, ids)
}

func TestAppendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.txt")
	require.NoError(t, New(path).Append("9"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestUnique(t *testing.T) {
	ids := []models.ObjectID{"3", "1", "3", "2", "1"}
	assert.Equal(t, []models.ObjectID{"3", "1", "2"}, Unique(ids))
	assert.Empty(t, Unique(nil))
}
