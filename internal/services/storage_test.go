package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root)

	path, err := store.Save(context.Background(), "../../passport.PNG", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, root), "file stays under the root")
	assert.Equal(t, ".png", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDocumentKey_Unique(t *testing.T) {
	a := documentKey("id.jpg")
	b := documentKey("id.jpg")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "riders/"))
}

func TestLocalStore_Delete(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	path, err := store.Save(ctx, "id.jpg", strings.NewReader("jpg"), 3, "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, path), "deleting a missing document is not an error")
}

func TestS3Store_DeleteRejectsForeignPath(t *testing.T) {
	store := &S3Store{bucket: "rider-docs"}

	err := store.Delete(context.Background(), "s3://other/riders/a.png")
	assert.EqualError(t, err, `document "s3://other/riders/a.png" is not in bucket rider-docs`)
}
