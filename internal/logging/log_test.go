package logging

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupLevel(t *testing.T) {
	logger, closer, err := Setup("debug", "")
	require.NoError(t, err)
	defer closer.Close()
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, closer, err = Setup("", "")
	require.NoError(t, err)
	defer closer.Close()
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, _, err = Setup("loud", "")
	assert.Error(t, err)
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookscout.log")

	logger, closer, err := Setup("info", path)
	require.NoError(t, err)

	logger.Info("search finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"search finished"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestSetupWritesStderr(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = stderr })

	logger, closer, err := Setup("info", "")
	require.NoError(t, err)
	logger.Info("detail page failed")
	require.NoError(t, closer.Close())
	require.NoError(t, w.Close())

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"detail page failed"`)
}
