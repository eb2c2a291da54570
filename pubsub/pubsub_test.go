package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-analytics/models"
)

func TestDecodeEvent(t *testing.T) {
	evt, err := DecodeEvent(`{"type":"widget","widget":"slider","value":"3","session_id":"abc"}`)
	require.NoError(t, err)
	assert.Equal(t, models.EventWidget, evt.Type)
	assert.Equal(t, "slider", evt.Widget)
	assert.Equal(t, "abc", evt.SessionID)

	_, err = DecodeEvent(`{"type":"widget"}`)
	assert.ErrorIs(t, err, models.ErrMissingWidget)

	_, err = DecodeEvent(`not json`)
	assert.Error(t, err)
}
