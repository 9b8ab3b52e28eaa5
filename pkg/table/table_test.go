package table

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead_Basic(t *testing.T) {
	path := writeCSV(t, "url,caption\nhttps://x/a.jpg,hello\nhttps://x/b.png,\"with, comma\"\n")

	tbl, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"url", "caption"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "with, comma", tbl.Rows[1][1])
}

func TestRead_RaggedRowsNormalized(t *testing.T) {
	path := writeCSV(t, "url,caption,tags\nhttps://x/a.jpg\nhttps://x/b.png,cap,tag,extra\n")

	tbl, err := Read(path)
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"https://x/a.jpg", "", ""}, tbl.Rows[0], "short row padded")
	assert.Equal(t, []string{"https://x/b.png", "cap", "tag"}, tbl.Rows[1], "long row truncated")
}

func TestRead_EmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	_, err := Read(path)
	assert.Error(t, err)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	tbl := &Table{
		Header: []string{"url", "image_name"},
		Rows: [][]string{
			{"https://x/a.jpg", "a.jpg"},
			{"", ""},
		},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, tbl.Write(path))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, back.Header)
	assert.Equal(t, tbl.Rows, back.Rows)
}

func TestColumnIndex_CaseInsensitive(t *testing.T) {
	tbl := &Table{Header: []string{"URL", " Caption ", "Image_Name"}}

	assert.Equal(t, 0, tbl.ColumnIndex("url"))
	assert.Equal(t, 1, tbl.ColumnIndex("caption"))
	assert.Equal(t, 2, tbl.ColumnIndex("image_name"))
	assert.Equal(t, -1, tbl.ColumnIndex("event"))
}

func TestRequireColumn(t *testing.T) {
	tbl := &Table{Header: []string{"url"}}

	idx, err := tbl.RequireColumn("url")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = tbl.RequireColumn("event")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrMissingColumn))
}

func TestEnsureColumn(t *testing.T) {
	tbl := &Table{
		Header: []string{"url"},
		Rows:   [][]string{{"https://x/a.jpg"}},
	}

	idx := tbl.EnsureColumn("image_name")
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"url", "image_name"}, tbl.Header)
	assert.Equal(t, []string{"https://x/a.jpg", ""}, tbl.Rows[0])

	// Existing column (any case) is reused, not duplicated.
	assert.Equal(t, 1, tbl.EnsureColumn("Image_Name"))
	assert.Len(t, tbl.Header, 2)
}

func TestGetSet(t *testing.T) {
	tbl := &Table{
		Header: []string{"url"},
		Rows:   [][]string{{"  padded  "}},
	}

	assert.Equal(t, "padded", tbl.Get(0, 0))
	assert.Equal(t, "", tbl.Get(5, 0), "out-of-range row")
	assert.Equal(t, "", tbl.Get(0, 5), "out-of-range column")

	tbl.Set(0, 0, "value")
	assert.Equal(t, "value", tbl.Rows[0][0])
	tbl.Set(9, 0, "ignored") // no panic
}
