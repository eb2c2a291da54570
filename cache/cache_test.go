package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-analytics/models"
)

func TestBigCacheStore(t *testing.T) {
	store, err := NewBigCacheStore(time.Minute)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get("chart:missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set("chart:a", []byte("<svg/>")))
	got, err := store.Get("chart:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), got)

	require.NoError(t, store.Delete("chart:a"))
	require.NoError(t, store.Delete("chart:a"))
	_, err = store.Get("chart:a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestChartKey(t *testing.T) {
	day, _ := models.ParseDay("2024-03-01")
	a := models.DailySeries{{Day: day, Pageviews: 1}}
	b := models.DailySeries{{Day: day, Pageviews: 2}}

	ka, err := ChartKey(a, 800, 300)
	require.NoError(t, err)
	kb, err := ChartKey(b, 800, 300)
	require.NoError(t, err)
	kaSmall, err := ChartKey(a, 400, 300)
	require.NoError(t, err)
	again, err := ChartKey(a, 800, 300)
	require.NoError(t, err)

	assert.Equal(t, ka, again)
	assert.NotEqual(t, ka, kb)
	assert.NotEqual(t, ka, kaSmall)
	assert.Regexp(t, `^chart:[0-9a-f]{16}:800x300$`, ka)
}
