// Package domain models traffic sensor crossings and their daily aggregates.
//
// # Data Source
//
// One CSV file per calendar day, named YYYY-MM-DD.csv, covering a fixed
// historical window (2017-09-01 through 2017-10-31 by default). Each file has a
// header line followed by one row per detected vehicle:
//
//	timestamp,vehicleClass,entryDirection,exitDirection,distanceMeters,speedKmh
//	05-09-2017 07:42,car,north,south,38.2,71.4
//
// Only timestamp, vehicleClass, entryDirection and speedKmh are consumed.
//
// # Parsing Rules
//
// Rows with fewer than six fields, or whose speed is not a finite non-negative
// number, are dropped without affecting any count. Vehicle classes other than
// car, truck and bus become car. The hour is the leading integer of the second
// whitespace token of the timestamp, clamped to 0–23 (0 when absent).
//
// Entry directions are upper-cased and used as lookup keys. Only NORTH, SOUTH,
// EAST and WEST have buckets: a row with any other direction still counts
// towards the hour, day and class totals but is missing from every
// direction-based figure, so direction volumes may sum to less than the total.
//
// # Aggregation Conventions
//
//	Rounding:     one decimal place, halves away from zero (math.Round(v*10)/10).
//	Units:        mph = km/h / 1.609, applied to sums and averages rather than rows.
//	Over limit:   speed >= limit (80 km/h by default).
//	Risk level:   absolute hourly count, <50 → 0 | <150 → 1 | <350 → 2 | <700 → 3 | else 4.
//	              Thresholds are not scaled by the number of days, so daily, weekly
//	              and monthly heatmaps differ visibly.
//	Events:       the first 100 over-limit rows in input order, confidence
//	              min(99, round(70 + (speed - limit) / 2)) percent.
//	Pedestrians:  round(total * 0.036), an estimate rather than a measurement.
//
// # Ranges
//
// [Catalog.Resolve] maps "daily", "weekly", "monthly" and "all" to the most
// recent 1, 7, 30 or every day of the catalog, or an explicit date to its
// single file. Results are always oldest first.
package domain
