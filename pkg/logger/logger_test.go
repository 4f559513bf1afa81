package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFileOutputWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ghcrm.log")

	log, err := New(&Config{Level: "debug", Output: OutputFile, Format: "json", FilePath: path})
	require.NoError(t, err)

	log.WithFields(Component("test"), FullName("octo/cat")).Info("tracked")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"tracked"`)
	assert.Contains(t, string(data), `"full_name":"octo/cat"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestSessionIDIsTruncated(t *testing.T) {
	f := SessionID("sid:42:8d7f3c1e-0000-4000-8000-000000000000")
	assert.Equal(t, "sid:42:8d7f3...", f.String)
}

func TestGlobalLoggerDefaults(t *testing.T) {
	SetGlobal(NewNop())
	t.Cleanup(func() { SetGlobal(nil) })

	assert.NotNil(t, Get())
	assert.NotPanics(t, func() { Info("hello", Int("n", 1)) })
}
