package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultSpeedLimitKmh is the over-limit threshold used when none is configured.
	DefaultSpeedLimitKmh = 80.0

	// KmhPerMph converts km/h to mph by division.
	KmhPerMph = 1.609

	// MaxHighSpeedEvents caps the materialized over-limit events.
	MaxHighSpeedEvents = 100

	// pedestrianRatio is a fixed estimate, not a measurement.
	pedestrianRatio = 0.036
)

// riskThresholds are absolute hourly counts. Level n applies when the count
// reaches riskThresholds[n-1]; they are not scaled by the number of days.
var riskThresholds = [...]int{50, 150, 350, 700}

// Aggregate reduces crossings spanning days into a dataset. Records must carry
// a DayIndex into days. Accumulation happens in one pass over the records and
// every derived field is computed afterwards from the finished buckets, so the
// result does not depend on record order except for which events survive the cap.
func Aggregate(records []VehicleCrossing, days []DayDescriptor, speedLimitKmh float64, rangeName string) *AggregatedDataset {
	if speedLimitKmh <= 0 {
		speedLimitKmh = DefaultSpeedLimitKmh
	}

	var (
		perHour      [24]HourBucket
		hourClass    [24]map[VehicleClass]int
		perDay       = make([]DayBucket, len(days))
		perClass     = map[VehicleClass]int{}
		perDirection = make(map[Direction]*DirectionStats, len(Directions))
		events       []HighSpeedEvent
		totalSpeed   float64
	)
	for i := range hourClass {
		hourClass[i] = map[VehicleClass]int{}
	}
	for i, d := range days {
		perDay[i] = DayBucket{Date: d.Date, Label: d.Label}
	}
	for _, dir := range Directions {
		perDirection[dir] = &DirectionStats{Direction: dir}
	}

	for _, r := range records {
		h := min(23, max(0, r.Hour))
		cls := normalizeClass(string(r.Class))
		perHour[h].Count++
		hourClass[h][cls]++
		perClass[cls]++
		totalSpeed += r.SpeedKmh

		inDay := r.DayIndex >= 0 && r.DayIndex < len(perDay)
		if inDay {
			perDay[r.DayIndex].Count++
		}

		if r.SpeedKmh >= speedLimitKmh {
			perHour[h].OverLimit++
			if inDay {
				perDay[r.DayIndex].OverLimit++
			}
			events = append(events, newHighSpeedEvent(r, h, days, speedLimitKmh))
		}

		if d, ok := perDirection[Direction(r.EntryDirection)]; ok {
			d.Count++
			d.SumSpeedKmh += r.SpeedKmh
			switch cls {
			case ClassTruck:
				d.Truck++
			case ClassBus:
				d.Bus++
			default:
				d.Car++
			}
		}
	}

	total := len(records)
	avgKmh := 0.0
	if total > 0 {
		avgKmh = totalSpeed / float64(total)
	}

	ds := &AggregatedDataset{
		Range:                rangeName,
		SpeedLimitKmh:        speedLimitKmh,
		TotalVehicles:        total,
		EstimatedPedestrians: int(math.Round(float64(total) * pedestrianRatio)),
		AvgSpeedKmh:          Round1(avgKmh),
		AvgSpeedMph:          Round1(avgKmh / KmhPerMph),
		OverLimitCount:       len(events),
		PerHour:              perHour,
		PerDay:               perDay,
		HighSpeedEvents:      events[:min(len(events), MaxHighSpeedEvents)],
	}

	for _, d := range days {
		ds.DayNames = append(ds.DayNames, d.Label)
		ds.AllDates = append(ds.AllDates, d.Date)
	}
	ds.DateRangeLabel = dateRangeLabel(ds.DayNames)

	for _, dir := range Directions {
		ds.PerDirection = append(ds.PerDirection, *perDirection[dir])
	}
	ds.PerClass = classShares(perClass)
	ds.RiskByHour = riskLevels(perHour)
	ds.TopFlowsByDirection = topFlows(ds.PerDirection)
	ds.DirectionSummaries = directionSummaries(ds.PerDirection)
	ds.DirectionClassBars = directionClassBars(ds.PerDirection)

	for h := range perHour {
		label := HourLabel(h)
		ds.VehicleFrequencyByHour = append(ds.VehicleFrequencyByHour, LabelValue{Label: label, Value: perHour[h].Count})
		ds.VehicleTrendByHour = append(ds.VehicleTrendByHour, HourClassTrend{
			Time:   label,
			Cars:   hourClass[h][ClassCar],
			Trucks: hourClass[h][ClassTruck],
			Buses:  hourClass[h][ClassBus],
		})
	}
	for _, d := range perDay {
		ds.SpeedingByDay = append(ds.SpeedingByDay, SpeedingDay{Day: d.Label, Count: d.OverLimit})
	}

	return ds
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RiskLevel maps an hourly vehicle count to a level from 0 to 4.
func RiskLevel(count int) int {
	level := 0
	for _, t := range riskThresholds {
		if count >= t {
			level++
		}
	}
	return level
}

// HourLabel formats an hour of day as "12 AM", "1 AM", ..., "11 PM".
func HourLabel(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h == 12:
		return "12 PM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

// BoundLabel turns a direction key into "Northbound".
func BoundLabel(dir string) string {
	return titleCase(dir) + "bound"
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return s[:1] + strings.ToLower(s[1:])
}

func newHighSpeedEvent(r VehicleCrossing, hour int, days []DayDescriptor, limit float64) HighSpeedEvent {
	date := ""
	if r.DayIndex >= 0 && r.DayIndex < len(days) {
		date = days[r.DayIndex].Date
	}
	return HighSpeedEvent{
		Timestamp:  fmt.Sprintf("%s %02d:00", date, hour),
		Type:       "Speeding",
		Direction:  BoundLabel(r.EntryDirection),
		SpeedKmh:   Round1(r.SpeedKmh),
		SpeedMph:   Round1(r.SpeedKmh / KmhPerMph),
		Confidence: min(99, int(math.Round(70+(r.SpeedKmh-limit)/2))),
	}
}

func dateRangeLabel(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return names[0] + "–" + names[len(names)-1]
	}
}

func classShares(counts map[VehicleClass]int) []ClassShare {
	var shares []ClassShare
	total := 0
	for _, c := range Classes {
		if counts[c] == 0 {
			continue
		}
		shares = append(shares, ClassShare{Class: c, Name: titleCase(string(c)), Value: counts[c]})
		total += counts[c]
	}
	for i := range shares {
		shares[i].Percent = Round1(float64(shares[i].Value) / float64(total) * 100)
	}
	return shares
}

func riskLevels(perHour [24]HourBucket) []int {
	levels := make([]int, len(perHour))
	for h, b := range perHour {
		levels[h] = RiskLevel(b.Count)
	}
	return levels
}

func topFlows(stats []DirectionStats) []DirectionFlow {
	flows := make([]DirectionFlow, 0, len(stats))
	for _, d := range stats {
		avgKmh := 0.0
		if d.Count > 0 {
			avgKmh = d.SumSpeedKmh / float64(d.Count)
		}
		flows = append(flows, DirectionFlow{
			Name: BoundLabel(string(d.Direction)),
			Stats: fmt.Sprintf("%s vehicles • avg %d mph • %d car, %d truck, %d bus",
				humanize.Comma(int64(d.Count)), int(math.Round(avgKmh/KmhPerMph)), d.Car, d.Truck, d.Bus),
			Volume: d.Count,
		})
	}
	slices.SortStableFunc(flows, func(a, b DirectionFlow) int { return b.Volume - a.Volume })
	for i := range flows {
		flows[i].Rank = i + 1
	}
	return flows
}

func directionSummaries(stats []DirectionStats) []DirectionSummary {
	out := make([]DirectionSummary, 0, len(stats))
	for _, d := range stats {
		avgKmh := 0.0
		if d.Count > 0 {
			avgKmh = d.SumSpeedKmh / float64(d.Count)
		}
		out = append(out, DirectionSummary{
			ID:          strings.ToLower(string(d.Direction)),
			Label:       BoundLabel(string(d.Direction)),
			AvgSpeedKmh: Round1(avgKmh),
			AvgSpeedMph: Round1(avgKmh / KmhPerMph),
			Volume:      d.Count,
		})
	}
	return out
}

func directionClassBars(stats []DirectionStats) []LabelValue {
	var bars []LabelValue
	for _, d := range stats {
		label := titleCase(string(d.Direction))
		for _, b := range []LabelValue{
			{Label: label + " Car", Value: d.Car},
			{Label: label + " Truck", Value: d.Truck},
			{Label: label + " Bus", Value: d.Bus},
		} {
			if b.Value > 0 {
				bars = append(bars, b)
			}
		}
	}
	return bars
}
