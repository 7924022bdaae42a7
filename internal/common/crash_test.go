package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	dir := t.TempDir()
	previous := CrashLogDir
	CrashLogDir = dir
	t.Cleanup(func() { CrashLogDir = previous })

	path := WriteCrashFile("boom", GetStackTrace())
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== PANIC VALUE ===\nboom")
	assert.Contains(t, string(data), "TestWriteCrashFile")
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^run_[0-9a-f-]{36}$`, a)
	assert.Regexp(t, `@example\.com$`, NewMessageID("example.com"))
	assert.Regexp(t, `@oilreport\.local$`, NewMessageID(""))
}
