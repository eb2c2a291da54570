package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-analytics/models"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 2*time.Second, s.BatchInterval)
	assert.Nil(t, s.Password())
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("ANALYTICS_PORT", "9999")
	t.Setenv("ANALYTICS_UNSAFE_PASSWORD", "hunter2")
	t.Setenv("ANALYTICS_BATCH_MODE", "count")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "9999", s.Port)
	assert.Equal(t, "count", s.BatchMode)
	require.NotNil(t, s.Password())
	assert.Equal(t, "hunter2", *s.Password())
}

func TestLoadSettingsRejectsUnknownModes(t *testing.T) {
	t.Setenv("ANALYTICS_CACHE_BACKEND", "memcached")
	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestInitDB(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.DailyCount{}))
	assert.True(t, db.Migrator().HasTable(&models.WidgetCount{}))
	assert.True(t, db.Migrator().HasTable(&models.Summary{}))
}
