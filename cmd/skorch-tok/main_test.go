package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return buf.String()
}

func TestVersionCmd(t *testing.T) {
	out := runCmd(t, "version")
	assert.Contains(t, out, "skorch-tok version")
}

func TestTrainEncodeDecode(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("low low low\nlower lowest\nlow lower\n"), 0o644))
	state := filepath.Join(dir, "state.json")

	out := runCmd(t, "train", "--model", "bpe", "--vocab-size", "30", "-o", state, corpus)
	assert.Contains(t, out, "saved to "+state)

	out = runCmd(t, "encode", "--state", state, "low lower")
	var row []int
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &row))
	require.NotEmpty(t, row)

	args := []string{"decode", "--state", state}
	for _, id := range row {
		args = append(args, strconv.Itoa(id))
	}
	out = runCmd(t, args...)
	assert.Contains(t, out, "low")
}

func TestTrainUnknownModel(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("hello\n"), 0o644))

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"train", "--model", "bogus", corpus})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model")
}

func TestEncodeRequiresSource(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"encode", "hello"})
	require.Error(t, root.Execute())
}
