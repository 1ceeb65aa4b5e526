package relay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	w := NewWriter(path)

	require.NoError(t, w.Append(map[int]int{2: 5, 1: 3}))
	require.NoError(t, w.Append(nil))
	require.NoError(t, w.Append(map[int]int{1: 4}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1:3\n2:5\n1:4\n", string(data))
	assert.Equal(t, path, w.Path())
}

func TestWriter_AppendEmptyDoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	require.NoError(t, NewWriter(path).Append(map[int]int{}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCollect(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	content := "1:3\n2:5\n1:7\nnot a line\n2:x\n1:2\n3:0"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sum, err := Collect(path)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 7, 2: 5, 3: 0}, sum.People)
	assert.Equal(t, 12, sum.Total)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "relay file should be removed")
}

func TestCollect_MissingFile(t *testing.T) {
	sum, err := Collect(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, sum.People)
	assert.Zero(t, sum.Total)
}

func TestCollect_RoundTripWithWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	w := NewWriter(path)
	for reps := 0; reps < 4; reps++ {
		require.NoError(t, w.Append(map[int]int{8: reps * 10, 9: 5}))
	}

	sum, err := Collect(path)
	require.NoError(t, err)
	assert.Equal(t, 35, sum.Total)

	// A second collect finds nothing.
	sum, err = Collect(path)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
}
