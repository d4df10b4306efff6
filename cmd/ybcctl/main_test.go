package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func Test_Set_Get_Rm_Round_Trip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index")
	dataPath := filepath.Join(dir, "data")

	out, errOut, code := runCLI(t, "set", "--index", indexPath, "--data", dataPath, "--key", "k", "--value", "hello", "--max-items", "64", "--data-size", "65536")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "ok")

	out, errOut, code = runCLI(t, "get", "--index", indexPath, "--data", dataPath, "--key", "k")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "hello")

	out, errOut, code = runCLI(t, "rm", "--index", indexPath, "--data", dataPath, "--key", "k")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "removed")

	out, errOut, code = runCLI(t, "get", "--index", indexPath, "--data", dataPath, "--key", "k")
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "(miss)")
}

func Test_Get_On_Unknown_Key_Is_A_Miss(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index")
	dataPath := filepath.Join(dir, "data")

	_, _, code := runCLI(t, "set", "--index", indexPath, "--data", dataPath, "--key", "a", "--value", "v", "--max-items", "64", "--data-size", "65536")
	require.Equal(t, 0, code)

	out, _, code := runCLI(t, "get", "--index", indexPath, "--data", dataPath, "--key", "nope")
	require.Equal(t, 0, code)
	require.Contains(t, out, "(miss)")
}

func Test_Rm_On_Unknown_Key_Reports_Not_Found(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index")
	dataPath := filepath.Join(dir, "data")

	_, _, code := runCLI(t, "set", "--index", indexPath, "--data", dataPath, "--key", "a", "--value", "v", "--max-items", "64", "--data-size", "65536")
	require.Equal(t, 0, code)

	out, _, code := runCLI(t, "rm", "--index", indexPath, "--data", dataPath, "--key", "nope")
	require.Equal(t, 0, code)
	require.Contains(t, out, "(not found)")
}

func Test_Backup_Copies_Index_And_Data_Files(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index")
	dataPath := filepath.Join(dir, "data")
	backupDir := filepath.Join(dir, "backup")

	_, errOut, code := runCLI(t, "set", "--index", indexPath, "--data", dataPath, "--key", "k", "--value", "hello", "--max-items", "64", "--data-size", "65536")
	require.Equal(t, 0, code, errOut)

	out, errOut, code := runCLI(t, "backup", "--index", indexPath, "--data", dataPath, "--to", backupDir)
	require.Equal(t, 0, code, errOut)
	require.Contains(t, out, "ok")

	_, err := os.Stat(filepath.Join(backupDir, "index"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(backupDir, "data"))
	require.NoError(t, err)
}

func Test_Backup_Requires_All_Flags(t *testing.T) {
	_, errOut, code := runCLI(t, "backup", "--index", "x")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "required")
}

func Test_Backup_Reports_Missing_Source_File(t *testing.T) {
	dir := t.TempDir()
	_, errOut, code := runCLI(t, "backup",
		"--index", filepath.Join(dir, "nope-index"),
		"--data", filepath.Join(dir, "nope-data"),
		"--to", filepath.Join(dir, "backup"))
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "no such file")
}

func Test_Unknown_Subcommand_Reports_Error(t *testing.T) {
	_, errOut, code := runCLI(t, "frobnicate")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown subcommand")
}

func Test_Get_Requires_Key(t *testing.T) {
	_, errOut, code := runCLI(t, "get", "--index", "x", "--data", "y")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "--key is required")
}

func Test_No_Args_Prints_Usage(t *testing.T) {
	out, _, code := runCLI(t)
	require.Equal(t, 0, code)
	require.Contains(t, out, "Usage: ybcctl")
}
