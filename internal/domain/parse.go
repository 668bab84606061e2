package domain

import (
	"math"
	"strconv"
	"strings"
)

// minFields is the column count of a source row:
// timestamp,vehicleClass,entryDirection,exitDirection,distanceMeters,speedKmh
const minFields = 6

// ParseRows converts one day file into crossings tagged with dayIndex. The
// header line is skipped; malformed rows are dropped silently.
func ParseRows(text string, dayIndex int) []VehicleCrossing {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	rows := make([]VehicleCrossing, 0, len(lines))
	for _, line := range lines[1:] {
		if row, ok := parseRow(strings.TrimSuffix(line, "\r"), dayIndex); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func parseRow(line string, dayIndex int) (VehicleCrossing, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < minFields {
		return VehicleCrossing{}, false
	}

	speed, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
	if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) || speed < 0 {
		return VehicleCrossing{}, false
	}

	timestamp := strings.TrimSpace(parts[0])
	return VehicleCrossing{
		TimestampRaw:   timestamp,
		Hour:           parseHour(timestamp),
		Class:          normalizeClass(parts[1]),
		EntryDirection: strings.ToUpper(strings.TrimSpace(parts[2])),
		SpeedKmh:       speed,
		DayIndex:       dayIndex,
	}, true
}

// normalizeClass accepts car, truck and bus (case-insensitive); anything else is a car.
func normalizeClass(value string) VehicleClass {
	switch c := VehicleClass(strings.ToLower(strings.TrimSpace(value))); c {
	case ClassCar, ClassTruck, ClassBus:
		return c
	default:
		return ClassCar
	}
}

// parseHour reads the hour from "DD-MM-YYYY HH:MM", clamped to [0,23].
func parseHour(timestamp string) int {
	fields := strings.Fields(timestamp)
	if len(fields) < 2 {
		return 0
	}
	hh, _, _ := strings.Cut(fields[1], ":")
	h, ok := leadingInt(hh)
	if !ok {
		return 0
	}
	return min(23, max(0, h))
}

// leadingInt parses an optional sign followed by the leading run of digits.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
