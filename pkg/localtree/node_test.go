package localtree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptedDataSize(t *testing.T) {
	tests := []struct {
		size arfs.ByteCount
		want arfs.ByteCount
	}{
		{0, 16},
		{1, 16},
		{15, 16},
		{16, 32},
		{17, 32},
		{31, 32},
		{32, 48},
		{1 << 20, 1<<20 + 16},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EncryptedDataSize(tt.size), "size %d", tt.size)
	}
}

func TestTotalByteCount_Encrypted(t *testing.T) {
	for _, tt := range []struct {
		size int
		want arfs.ByteCount
	}{
		{16, 32},
		{0, 16},
		{15, 16},
	} {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "only.bin"), tt.size)

		folder, err := NewBuilder().BuildFolder(dir)
		require.NoError(t, err)
		assert.Equal(t, tt.want, folder.TotalByteCount(true), "size %d", tt.size)
		assert.Equal(t, arfs.ByteCount(tt.size), folder.TotalByteCount(false))
	}
}

func TestTotalByteCount_Nested(t *testing.T) {
	root := &FolderNode{
		Path:  "/r",
		Files: []*FileNode{{Path: "/r/a", Size: 16}},
		Folders: []*FolderNode{
			{Path: "/r/s", Files: []*FileNode{{Path: "/r/s/b", Size: 0}, {Path: "/r/s/c", Size: 40}}},
		},
	}
	assert.Equal(t, arfs.ByteCount(56), root.TotalByteCount(false))
	assert.Equal(t, arfs.ByteCount(32+16+48), root.TotalByteCount(true))
}

func TestAssignExistingID_Immutable(t *testing.T) {
	first := arfs.NewEntityID()
	second := arfs.NewEntityID()

	file := &FileNode{Path: "/a"}
	assert.True(t, file.AssignExistingID(first))
	assert.True(t, file.AssignExistingID(first))
	assert.False(t, file.AssignExistingID(second))
	assert.Equal(t, first, *file.ExistingID)

	folder := &FolderNode{Path: "/b"}
	assert.True(t, folder.AssignExistingID(second))
	assert.False(t, folder.AssignExistingID(first))
	assert.Equal(t, second, *folder.ExistingID)
}

func TestFolderNode_Walk(t *testing.T) {
	root := &FolderNode{
		Path:  "/r",
		Files: []*FileNode{{Path: "/r/1"}},
		Folders: []*FolderNode{
			{Path: "/r/a", Files: []*FileNode{{Path: "/r/a/2"}}},
			{Path: "/r/b"},
		},
	}

	var visited []string
	err := root.Walk(func(n Node) error {
		visited = append(visited, n.Kind.String()+":"+n.Path())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"folder:/r",
		"file:/r/1",
		"folder:/r/a",
		"file:/r/a/2",
		"folder:/r/b",
	}, visited)

	stop := errors.New("stop")
	count := 0
	err = root.Walk(func(n Node) error {
		count++
		if n.Path() == "/r/a" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, count)
}

func TestFolderNode_RemoteName(t *testing.T) {
	folder := &FolderNode{Path: "/home/me/site"}
	assert.Equal(t, "site", folder.RemoteName())

	folder.DestinationName = "public-site"
	assert.Equal(t, "public-site", folder.RemoteName())
	assert.Equal(t, "site", folder.BaseName())
}

func TestMimeTable(t *testing.T) {
	assert.Equal(t, "text/html", ContentTypeOf("index.html"))
	assert.Equal(t, "image/jpeg", ContentTypeOf("PHOTO.JPG"))
	assert.Equal(t, DefaultContentType, ContentTypeOf("Makefile"))
	assert.Equal(t, DefaultContentType, ContentTypeOf("archive.unknownext"))

	table := NewMimeTable(map[string]string{"GLB": "model/gltf-binary", ".txt": "text/plain; charset=utf-8"})
	assert.Equal(t, "model/gltf-binary", table.ContentType("scene.glb"))
	assert.Equal(t, "text/plain; charset=utf-8", table.ContentType("a.txt"))
	// the built-in table is untouched
	assert.Equal(t, "text/plain", ContentTypeOf("a.txt"))
}
