package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
)

func testLoaded() *pipeline.Loaded {
	return &pipeline.Loaded{
		RequestID: "req-1",
		Selector:  domain.Selector{Date: "2017-10-30"},
		Dataset: &domain.AggregatedDataset{
			Range:          domain.RangeDaily,
			DateRangeLabel: "Oct 30",
			AllDates:       []string{"2017-10-30"},
			SpeedLimitKmh:  80,
			TotalVehicles:  2,
			OverLimitCount: 1,
			AvgSpeedKmh:    83.5,
			AvgSpeedMph:    51.9,
		},
		LoadedAt: time.Date(2017, 11, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestSummarize(t *testing.T) {
	s := summarize(testLoaded())

	assert.Equal(t, "req-1", s.RequestID)
	assert.Equal(t, domain.RangeDaily, s.Range)
	assert.Equal(t, "2017-10-30", s.Date)
	assert.Equal(t, []string{"2017-10-30"}, s.Days)
	assert.Equal(t, 2, s.TotalVehicles)
	assert.Equal(t, 1, s.OverLimit)
	assert.InDelta(t, 51.9, s.AvgSpeedMph, 0)
}

func TestSerializeToMessage(t *testing.T) {
	s := summarize(testLoaded())

	msg, err := serializeToMessage(s)
	require.NoError(t, err)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"total_vehicles":2`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "range", msg.Headers[0].Key)
	assert.Equal(t, []byte("daily"), msg.Headers[0].Value)
	assert.Equal(t, "loaded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2017-11-01T08:30:00Z"), msg.Headers[1].Value)

	var back Summary
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, s, back)
}

func TestSerializeToMessage_OmitsEmptyDate(t *testing.T) {
	loaded := testLoaded()
	loaded.Selector = domain.Selector{Range: domain.RangeWeekly}

	msg, err := serializeToMessage(summarize(loaded))
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), `"date":`)
}
