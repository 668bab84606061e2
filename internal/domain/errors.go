package domain

import "errors"

var (
	// ErrRangeNotFound is returned when an explicit date has no catalog entry.
	ErrRangeNotFound = errors.New("range not found")

	// ErrSourceUnavailable is returned when a day file cannot be fetched.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmptyRange is returned when aggregation is asked to load zero days.
	ErrEmptyRange = errors.New("empty range")

	// ErrInvalidDataset is returned when a dataset lacks usable numeric fields.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrNotReady is returned when a report is requested while another is in progress.
	ErrNotReady = errors.New("report generation not ready")

	// ErrSuperseded is returned to a load request that was overtaken by a newer one.
	ErrSuperseded = errors.New("request superseded")
)
