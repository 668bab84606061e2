package domain

// VehicleClass is the normalized vehicle category of a crossing.
type VehicleClass string

const (
	ClassCar   VehicleClass = "car"
	ClassTruck VehicleClass = "truck"
	ClassBus   VehicleClass = "bus"
)

// Classes lists vehicle classes in reporting order.
var Classes = []VehicleClass{ClassCar, ClassTruck, ClassBus}

// Direction is an upper-cased entry direction key.
type Direction string

const (
	North Direction = "NORTH"
	South Direction = "SOUTH"
	East  Direction = "EAST"
	West  Direction = "WEST"
)

// Directions lists the known entry directions in their tie-break order.
var Directions = []Direction{North, South, East, West}

// VehicleCrossing is one parsed sensor row.
type VehicleCrossing struct {
	TimestampRaw   string
	Hour           int
	Class          VehicleClass
	EntryDirection string // upper-cased, not validated against Directions
	SpeedKmh       float64
	DayIndex       int
}

// DayDescriptor identifies one calendar day of source data.
type DayDescriptor struct {
	Date   string `json:"date"`  // YYYY-MM-DD
	Label  string `json:"label"` // e.g. "Sep 1"
	FileID string `json:"file"`  // e.g. "2017-09-01.csv"
}

// HourBucket accumulates crossings for one hour of day.
type HourBucket struct {
	Count     int `json:"count"`
	OverLimit int `json:"over_limit"`
}

// DayBucket accumulates crossings for one resolved day.
type DayBucket struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
	OverLimit int    `json:"over_limit"`
}

// DirectionStats accumulates crossings for one entry direction.
type DirectionStats struct {
	Direction   Direction `json:"direction"`
	Count       int       `json:"count"`
	SumSpeedKmh float64   `json:"sum_speed_kmh"`
	Car         int       `json:"car"`
	Truck       int       `json:"truck"`
	Bus         int       `json:"bus"`
}

// ClassShare is one slice of the vehicle class distribution.
type ClassShare struct {
	Class   VehicleClass `json:"class"`
	Name    string       `json:"name"`
	Value   int          `json:"value"`
	Percent float64      `json:"percent"`
}

// DirectionFlow is one row of the direction volume ranking.
type DirectionFlow struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Stats  string `json:"stats"`
	Volume int    `json:"volume"`
}

// DirectionSummary is a per-direction speed summary in fixed direction order.
type DirectionSummary struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
	AvgSpeedMph float64 `json:"avg_speed_mph"`
	Volume      int     `json:"volume"`
}

// HighSpeedEvent is an over-limit crossing materialized for the events list.
type HighSpeedEvent struct {
	Timestamp  string  `json:"ts"`
	Type       string  `json:"type"`
	Direction  string  `json:"direction"`
	SpeedKmh   float64 `json:"speed_kmh"`
	SpeedMph   float64 `json:"speed_mph"`
	Confidence int     `json:"confidence"` // percent
}

// LabelValue is a labelled count, used for hourly frequency bars.
type LabelValue struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// HourClassTrend holds per-class counts for one hour of day.
type HourClassTrend struct {
	Time   string `json:"time"`
	Cars   int    `json:"cars"`
	Trucks int    `json:"trucks"`
	Buses  int    `json:"buses"`
}

// SpeedingDay is the over-limit count for one day.
type SpeedingDay struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// AggregatedDataset is the immutable result of one aggregation run. It is safe
// to share between readers once returned.
type AggregatedDataset struct {
	Range          string   `json:"range"`
	DateRangeLabel string   `json:"date_range_label"`
	DayNames       []string `json:"day_names"`
	AllDates       []string `json:"all_dates"`
	SpeedLimitKmh  float64  `json:"speed_limit_kmh" validate:"gt=0"`

	TotalVehicles        int     `json:"total_vehicles" validate:"gte=0"`
	EstimatedPedestrians int     `json:"estimated_pedestrians" validate:"gte=0"`
	AvgSpeedKmh          float64 `json:"avg_speed_kmh" validate:"gte=0"`
	AvgSpeedMph          float64 `json:"avg_speed_mph" validate:"gte=0"`
	OverLimitCount       int     `json:"over_limit" validate:"gte=0"`

	PerHour      [24]HourBucket   `json:"per_hour"`
	PerDay       []DayBucket      `json:"per_day"`
	PerDirection []DirectionStats `json:"per_direction"`
	PerClass     []ClassShare     `json:"class_distribution"`
	RiskByHour   []int            `json:"risk_by_hour" validate:"omitempty,dive,min=0,max=4"`

	TopFlowsByDirection []DirectionFlow    `json:"top_flows_by_direction"`
	DirectionSummaries  []DirectionSummary `json:"direction_summaries"`
	HighSpeedEvents     []HighSpeedEvent   `json:"high_speed_events"`

	VehicleFrequencyByHour []LabelValue     `json:"vehicle_frequency_by_hour"`
	VehicleTrendByHour     []HourClassTrend `json:"vehicle_trend_by_hour"`
	DirectionClassBars     []LabelValue     `json:"direction_class_bars"`
	SpeedingByDay          []SpeedingDay    `json:"speeding_by_day"`
}
