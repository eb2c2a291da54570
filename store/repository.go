// Package store persists counts snapshots in SQLite through gorm, or in the
// streamlit-analytics JSON counts file format.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"streamlit-analytics/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load reads the persisted snapshot. An empty database yields an empty
// snapshot, not an error.
func (r *Repository) Load(ctx context.Context) (models.CountsSnapshot, error) {
	snap := models.CountsSnapshot{Widgets: map[string]int64{}}
	db := r.db.WithContext(ctx)

	var summary models.Summary
	err := db.First(&summary, models.SummaryID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return snap, fmt.Errorf("load summary: %w", err)
	default:
		snap.TotalPageviews = summary.TotalPageviews
		snap.TotalScriptRuns = summary.TotalScriptRuns
		snap.TotalTimeSeconds = summary.TotalTimeSeconds
		if summary.FirstPageview != nil {
			snap.FirstPageview = summary.FirstPageview.UTC()
		}
	}

	var days []models.DailyCount
	if err := db.Order("day").Find(&days).Error; err != nil {
		return snap, fmt.Errorf("load daily counts: %w", err)
	}
	for _, d := range days {
		snap.PerDay = append(snap.PerDay, models.DayCount{
			Day:        models.Truncate(d.Day),
			Pageviews:  d.Pageviews,
			ScriptRuns: d.ScriptRuns,
		})
	}

	var widgets []models.WidgetCount
	if err := db.Find(&widgets).Error; err != nil {
		return snap, fmt.Errorf("load widget counts: %w", err)
	}
	for _, w := range widgets {
		snap.Widgets[w.Widget] = w.Count
	}
	return snap, nil
}

// Save replaces the persisted state with snap in a single transaction.
func (r *Repository) Save(ctx context.Context, snap models.CountsSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary := models.Summary{
			ID:               models.SummaryID,
			TotalPageviews:   snap.TotalPageviews,
			TotalScriptRuns:  snap.TotalScriptRuns,
			TotalTimeSeconds: snap.TotalTimeSeconds,
		}
		if !snap.FirstPageview.IsZero() {
			first := snap.FirstPageview.UTC()
			summary.FirstPageview = &first
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&summary).Error; err != nil {
			return fmt.Errorf("save summary: %w", err)
		}

		if err := saveDays(tx, snap.PerDay); err != nil {
			return err
		}
		return saveWidgets(tx, snap.Widgets)
	})
}

func saveDays(tx *gorm.DB, series models.DailySeries) error {
	keep := make(map[string]bool, len(series))
	rows := make([]models.DailyCount, 0, len(series))
	for _, d := range series {
		day := models.Truncate(d.Day)
		keep[day.Format(models.DayLayout)] = true
		rows = append(rows, models.DailyCount{Day: day, Pageviews: d.Pageviews, ScriptRuns: d.ScriptRuns})
	}
	if len(rows) > 0 {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"pageviews", "script_runs", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
		if err != nil {
			return fmt.Errorf("save daily counts: %w", err)
		}
	}

	var existing []models.DailyCount
	if err := tx.Select("id", "day").Find(&existing).Error; err != nil {
		return fmt.Errorf("list daily counts: %w", err)
	}
	var stale []uint
	for _, row := range existing {
		if !keep[models.Truncate(row.Day).Format(models.DayLayout)] {
			stale = append(stale, row.ID)
		}
	}
	if len(stale) > 0 {
		if err := tx.Delete(&models.DailyCount{}, stale).Error; err != nil {
			return fmt.Errorf("prune daily counts: %w", err)
		}
	}
	return nil
}

func saveWidgets(tx *gorm.DB, widgets map[string]int64) error {
	rows := make([]models.WidgetCount, 0, len(widgets))
	for name, count := range widgets {
		rows = append(rows, models.WidgetCount{Widget: name, Count: count})
	}
	if len(rows) > 0 {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "widget"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
		if err != nil {
			return fmt.Errorf("save widget counts: %w", err)
		}
	}

	var existing []models.WidgetCount
	if err := tx.Select("id", "widget").Find(&existing).Error; err != nil {
		return fmt.Errorf("list widget counts: %w", err)
	}
	var stale []uint
	for _, row := range existing {
		if _, ok := widgets[row.Widget]; !ok {
			stale = append(stale, row.ID)
		}
	}
	if len(stale) > 0 {
		if err := tx.Delete(&models.WidgetCount{}, stale).Error; err != nil {
			return fmt.Errorf("prune widget counts: %w", err)
		}
	}
	return nil
}
