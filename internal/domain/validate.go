package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports ErrInvalidDataset when the dataset cannot back a report:
// nil, negative counts, or averages that are not finite.
func (ds *AggregatedDataset) Validate() error {
	if ds == nil {
		return fmt.Errorf("nil dataset: %w", ErrInvalidDataset)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"avg_speed_kmh", ds.AvgSpeedKmh},
		{"avg_speed_mph", ds.AvgSpeedMph},
		{"speed_limit_kmh", ds.SpeedLimitKmh},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s is not finite: %w", f.name, ErrInvalidDataset)
		}
	}
	if err := validate.Struct(ds); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q: %w", verrs[0].Namespace(), verrs[0].Tag(), ErrInvalidDataset)
		}
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return nil
}
