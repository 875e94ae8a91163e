package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-structurer/internal/models"
)

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Statement.PDF")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	src := FromPath(path)
	assert.Equal(t, "Statement.PDF", src.Name)
	assert.Equal(t, ".pdf", src.Ext())

	data, err := src.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	r, err := src.Reader()
	require.NoError(t, err)
	assert.EqualValues(t, 5, r.Size())
}

func TestFromBytes(t *testing.T) {
	src := FromBytes("upload.xlsx", []byte{1, 2, 3})
	assert.Equal(t, ".xlsx", src.Ext())

	data, err := src.Bytes()
	require.NoError(t, err)
	assert.Len(t, data, 3)
}

func TestBytes_Unreadable(t *testing.T) {
	_, err := FromPath("/nonexistent/statement-12345.pdf").Bytes()
	assert.ErrorIs(t, err, models.ErrSourceUnreadable)

	_, err = Source{}.Bytes()
	assert.ErrorIs(t, err, models.ErrSourceUnreadable)
}
