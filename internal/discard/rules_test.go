package discard

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIDFile writes content to a file in a temp dir and returns its path.
func writeIDFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestShouldDiscard_NoFiltering(t *testing.T) {
	r := NewRules()

	for _, id := range []string{"rs1", "", ".", "rs999"} {
		assert.False(t, r.ShouldDiscard(id), "id %q", id)
	}
	assert.Equal(t, 0, r.DiscardCount())
	assert.Equal(t, NoFiltering, r.Mode())
}

func TestShouldDiscard_Exclude(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "exclude.txt", "rs1\nrs2\n")))

	assert.True(t, r.ShouldDiscard("rs1"))
	assert.Equal(t, 1, r.DiscardCount())

	assert.False(t, r.ShouldDiscard("rs3"))
	assert.Equal(t, 1, r.DiscardCount())

	assert.True(t, r.ShouldDiscard("rs2"))
	assert.Equal(t, 2, r.DiscardCount())
	assert.Equal(t, ExcludeMode, r.Mode())
}

func TestShouldDiscard_Include(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadIncludeIDs(writeIDFile(t, "include.txt", "rs5\n")))

	assert.False(t, r.ShouldDiscard("rs5"))
	assert.Equal(t, 0, r.DiscardCount())

	assert.True(t, r.ShouldDiscard("rs9"))
	assert.Equal(t, 1, r.DiscardCount())
	assert.Equal(t, IncludeMode, r.Mode())
}

func TestShouldDiscard_ExcludeWinsOverInclude(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadIncludeIDs(writeIDFile(t, "include.txt", "rs1\nrs5\n")))
	assert.Equal(t, IncludeMode, r.Mode())

	// Loading an exclude list after the include list flips the mode.
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "exclude.txt", "rs1\n")))
	assert.Equal(t, ExcludeMode, r.Mode())

	tests := []struct {
		id   string
		want bool
	}{
		{"rs1", true},  // excluded, even though also included
		{"rs5", false}, // not excluded
		{"rs9", false}, // not in include set, but include set is ignored
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ShouldDiscard(tt.id))
		})
	}
	assert.Equal(t, 1, r.DiscardCount())
}

func TestLoad_DuplicatesCollapse(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "dup.txt", "rsX\nrsX\nrsX")))

	assert.Equal(t, 1, r.ExcludeCount())
	assert.True(t, r.ShouldDiscard("rsX"))
}

func TestLoad_WhitespaceAndEmptyLines(t *testing.T) {
	r := NewRules()
	content := "\n  rs1  \n\n\trs2 rs3\r\n\n"
	require.NoError(t, r.LoadIncludeIDs(writeIDFile(t, "ids.txt", content)))

	assert.Equal(t, 3, r.IncludeCount())
	for _, id := range []string{"rs1", "rs2", "rs3"} {
		assert.False(t, r.ShouldDiscard(id), "id %q", id)
	}
	assert.True(t, r.ShouldDiscard(""))
}

func TestLoad_Idempotent(t *testing.T) {
	path := writeIDFile(t, "ids.txt", "rs1\nrs2\nrs2\n")

	once := NewRules()
	require.NoError(t, once.LoadExcludeIDs(path))

	twice := NewRules()
	require.NoError(t, twice.LoadExcludeIDs(path))
	require.NoError(t, twice.LoadExcludeIDs(path))

	assert.Equal(t, once.exclude, twice.exclude)
}

func TestLoad_ReplacesPriorContents(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "a.txt", "rs1\n")))
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "b.txt", "rs2\n")))

	assert.False(t, r.ShouldDiscard("rs1"))
	assert.True(t, r.ShouldDiscard("rs2"))
}

func TestLoad_MissingFile(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "ids.txt", "rs1\n")))

	err := r.LoadExcludeIDs(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Set unchanged after a failed load.
	assert.Equal(t, 1, r.ExcludeCount())
	assert.True(t, r.ShouldDiscard("rs1"))

	err = r.LoadIncludeIDs(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.Equal(t, 0, r.IncludeCount())
}

type failingReader struct{ data string }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.data == "" {
		return 0, errors.New("disk on fire")
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestLoadFrom_ReadErrorKeepsPriorSet(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadIncludeIDsFrom(strings.NewReader("rs1\n")))

	err := r.LoadIncludeIDsFrom(&failingReader{data: "rs2\nrs3\n"})
	require.ErrorIs(t, err, ErrUnreadable)

	assert.Equal(t, 1, r.IncludeCount())
	assert.False(t, r.ShouldDiscard("rs1"))
	assert.True(t, r.ShouldDiscard("rs2"))
}

func TestLoad_Gzipped(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("rs10\nrs11\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "ids.txt.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(path))
	assert.Equal(t, 2, r.ExcludeCount())
	assert.True(t, r.ShouldDiscard("rs11"))
}

func TestLoad_EmptyFile(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDs(writeIDFile(t, "empty.txt", "")))

	assert.Equal(t, NoFiltering, r.Mode())
	assert.False(t, r.ShouldDiscard("rs1"))
}

func TestClearDiscardCount(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDsFrom(strings.NewReader("rs1 rs2")))

	r.ShouldDiscard("rs1")
	r.ShouldDiscard("rs2")
	require.Equal(t, 2, r.DiscardCount())

	r.ClearDiscardCount()
	assert.Equal(t, 0, r.DiscardCount())
	assert.Equal(t, 2, r.ExcludeCount())

	assert.True(t, r.ShouldDiscard("rs1"))
	assert.Equal(t, 1, r.DiscardCount())
}

func TestReset(t *testing.T) {
	r := NewRules()
	require.NoError(t, r.LoadExcludeIDsFrom(strings.NewReader("rs1")))
	require.NoError(t, r.LoadIncludeIDsFrom(strings.NewReader("rs2")))
	r.ShouldDiscard("rs1")

	r.Reset()

	assert.Equal(t, 0, r.DiscardCount())
	assert.Equal(t, NoFiltering, r.Mode())
	for _, id := range []string{"rs1", "rs2", "rs3"} {
		assert.False(t, r.ShouldDiscard(id))
	}
	assert.Equal(t, 0, r.DiscardCount())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "none", NoFiltering.String())
	assert.Equal(t, "exclude", ExcludeMode.String())
	assert.Equal(t, "include", IncludeMode.String())
}
