package service

import (
	"fmt"
	"time"

	"WeatherMetrics.influxDB/internal/models"
)

// DefaultMaxClockSkew is how far in the future a reading may be stamped.
const DefaultMaxClockSkew = 5 * time.Minute

// IngestionValidator guards the store against readings stamped too far ahead
// of the acceptance time.
type IngestionValidator struct {
	maxSkew time.Duration
	now     func() time.Time
}

func NewIngestionValidator(maxSkew time.Duration, now func() time.Time) *IngestionValidator {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxClockSkew
	}
	if now == nil {
		now = time.Now
	}
	return &IngestionValidator{maxSkew: maxSkew, now: now}
}

// Check returns a ValidationError when the reading's timestamp exceeds the
// acceptance time by more than the allowed skew.
func (v *IngestionValidator) Check(r models.Reading) error {
	limit := v.now().Add(v.maxSkew)
	if r.Timestamp.After(limit) {
		return models.ValidationError{
			Field:  "timestamp",
			Reason: fmt.Sprintf("%s is more than %s in the future", r.Timestamp.Format(time.RFC3339), v.maxSkew),
		}
	}
	return nil
}
