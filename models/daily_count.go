package models

import "time"

// DailyCount is the persisted row behind one DayCount.
type DailyCount struct {
	ID         uint      `gorm:"primaryKey"`
	Day        time.Time `gorm:"uniqueIndex;not null"`
	Pageviews  int64     `gorm:"default:0"`
	ScriptRuns int64     `gorm:"default:0"`
	UpdatedAt  time.Time
}

// WidgetCount is the persisted interaction counter of one widget.
type WidgetCount struct {
	ID        uint   `gorm:"primaryKey"`
	Widget    string `gorm:"size:512;uniqueIndex;not null"`
	Count     int64  `gorm:"default:0"`
	UpdatedAt time.Time
}

// Summary holds the snapshot totals; there is only ever the row with ID 1.
type Summary struct {
	ID               uint `gorm:"primaryKey"`
	TotalPageviews   int64
	TotalScriptRuns  int64
	TotalTimeSeconds float64
	FirstPageview    *time.Time
	UpdatedAt        time.Time
}

const SummaryID = 1

// WriterLease marks the process allowed to save snapshots into the database.
type WriterLease struct {
	ID        uint   `gorm:"primaryKey"`
	Owner     string `gorm:"size:128;not null"`
	ExpiresAt time.Time
}

const WriterLeaseID = 1
