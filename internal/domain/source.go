package domain

import "context"

// Source returns the raw CSV text of one catalog day.
type Source interface {
	Fetch(ctx context.Context, day DayDescriptor) (string, error)
}
