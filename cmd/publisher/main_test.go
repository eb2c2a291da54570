package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisherNeedsRedis(t *testing.T) {
	t.Setenv("ANALYTICS_REDIS_ADDR", "")
	cmd := newCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--type", "widget", "--widget", "slider", "--value", "2"})
	assert.ErrorContains(t, cmd.Execute(), "ANALYTICS_REDIS_ADDR")
}
