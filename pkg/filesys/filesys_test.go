package filesys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/pkg/filesys"
)

func Test_CreateDir_Creates_Missing_Parents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, filesys.CreateDir(dir, 0755, false))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func Test_CreateDir_Without_Force_Fails_If_Already_Present(t *testing.T) {
	dir := t.TempDir()
	err := filesys.CreateDir(dir, 0755, false)
	require.Error(t, err)
}

func Test_CreateDir_With_Force_Accepts_Existing_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, filesys.CreateDir(dir, 0755, true))
}

func Test_CreateDir_Rejects_Path_That_Is_A_File(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "afile")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	err := filesys.CreateDir(filePath, 0755, true)
	require.ErrorIs(t, err, filesys.ErrIsNotDir)
}

func Test_Exists_Reports_Presence(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "afile")

	exists, err := filesys.Exists(filePath)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	exists, err = filesys.Exists(filePath)
	require.NoError(t, err)
	require.True(t, exists)
}

func Test_CopyFile_Duplicates_Contents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, filesys.CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}

func Test_DeleteFile_Removes_File(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "afile")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	require.NoError(t, filesys.DeleteFile(filePath))

	_, err := os.Stat(filePath)
	require.True(t, os.IsNotExist(err))
}

func Test_ReadDir_Matches_Glob_Pattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bad"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.bad"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("x"), 0644))

	matches, err := filesys.ReadDir(filepath.Join(dir, "*.bad"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func Test_SearchFileExtensions_Finds_Matching_Files_Recursively(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	excluded := filepath.Join(dir, "excluded")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.MkdirAll(excluded, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.bad"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.bad"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(excluded, "skip.bad"), []byte("x"), 0644))

	matches, err := filesys.SearchFileExtensions(dir, []string{excluded}, ".bad")
	require.NoError(t, err)
	require.Len(t, matches, 2)
}
