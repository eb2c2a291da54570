package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Setup(Options{Dir: dir, Level: "debug", Format: "json"}))
	t.Cleanup(func() { Setup(Options{Level: "info"}) })

	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	Audit.WithField("method", "GET").Info("request")

	raw, err := os.ReadFile(filepath.Join(dir, "audit", "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"method":"GET"`)
}

func TestSetupFallsBackToInfo(t *testing.T) {
	require.NoError(t, Setup(Options{Level: "loud"}))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
