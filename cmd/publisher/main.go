package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"streamlit-analytics/cache"
	"streamlit-analytics/config"
	"streamlit-analytics/logger"
	"streamlit-analytics/models"
	"streamlit-analytics/pubsub"
	"streamlit-analytics/utils"
)

func newCommand() *cobra.Command {
	var evt models.Event
	var eventType string

	cmd := &cobra.Command{
		Use:   "publisher",
		Short: "Publish one tracking event to the analytics Redis channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings()
			if err != nil {
				return err
			}
			if settings.RedisAddr == "" {
				return fmt.Errorf("ANALYTICS_REDIS_ADDR is not set")
			}

			evt.Type = models.EventType(eventType)
			if evt.SessionID == "" {
				evt.SessionID = utils.NewSessionID()
			}
			evt.Timestamp = time.Now().UTC()

			redisStore, err := cache.NewRedisStore(settings.RedisAddr, settings.RedisPassword, settings.RedisDB, 0)
			if err != nil {
				return fmt.Errorf("failed to initialize Redis: %w", err)
			}
			defer redisStore.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := pubsub.NewPubSub(redisStore).Publish(ctx, evt); err != nil {
				return fmt.Errorf("failed to publish: %w", err)
			}
			logger.Log.WithField("event", evt.Key()).Info("Event published")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&eventType, "type", string(models.EventPageview), "event type: pageview, script_run or widget")
	f.StringVar(&evt.Widget, "widget", "", "widget id for widget events")
	f.StringVar(&evt.Value, "value", "", "new widget value; empty for buttons")
	f.StringVar(&evt.SessionID, "session", "", "session id (random when empty)")
	f.Float64Var(&evt.DurationSeconds, "duration", 0, "script run duration in seconds")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
