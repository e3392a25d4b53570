package model

import "time"

// LoadSummary captures metrics from a single extract load run.
type LoadSummary struct {
	FilePath      string
	FileSHA256    string
	LoadRunID     int64
	AlreadyLoaded bool

	RowsRead   int64
	RowsLoaded int64

	DurationStage   time.Duration
	DurationPublish time.Duration
	DurationTotal   time.Duration
}
