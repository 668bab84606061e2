package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "Timestamp,Class,Entry,Exit,Distance_m,Speed_kmh"

func TestParseRows(t *testing.T) {
	text := testHeader + "\r\n" +
		"05-09-2017 07:42,car,north,south,38.2,71.4\r\n" +
		"05-09-2017 18:03,TRUCK,South,north,41.0,92\r\n" +
		"05-09-2017 23:59,motorbike,east,west,12,55.5\n"

	rows := ParseRows(text, 3)
	require.Len(t, rows, 3)

	assert.Equal(t, VehicleCrossing{
		TimestampRaw:   "05-09-2017 07:42",
		Hour:           7,
		Class:          ClassCar,
		EntryDirection: "NORTH",
		SpeedKmh:       71.4,
		DayIndex:       3,
	}, rows[0])
	assert.Equal(t, ClassTruck, rows[1].Class)
	assert.Equal(t, "SOUTH", rows[1].EntryDirection)
	assert.Equal(t, 18, rows[1].Hour)
	assert.Equal(t, ClassCar, rows[2].Class, "unknown class defaults to car")
}

func TestParseRows_DropsMalformed(t *testing.T) {
	text := testHeader + "\n" +
		"05-09-2017 07:42,car,NORTH,SOUTH,38.2\n" + // too few fields
		"05-09-2017 07:42,car,NORTH,SOUTH,38.2,fast\n" + // non-numeric speed
		"05-09-2017 07:42,car,NORTH,SOUTH,38.2,NaN\n" +
		"05-09-2017 07:42,car,NORTH,SOUTH,38.2,-4\n" +
		"\n" +
		"05-09-2017 07:42,bus,WEST,EAST,38.2,40\n"

	rows := ParseRows(text, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, ClassBus, rows[0].Class)
}

func TestParseRows_HeaderOnlyAndEmpty(t *testing.T) {
	assert.Empty(t, ParseRows(testHeader, 0))
	assert.Empty(t, ParseRows("", 0))
	assert.Empty(t, ParseRows("   \n  ", 0))
}

func TestParseRows_KeepsUnknownDirection(t *testing.T) {
	rows := ParseRows(testHeader+"\n05-09-2017 07:42,car,northeast,SOUTH,38.2,50\n", 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "NORTHEAST", rows[0].EntryDirection)
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"standard", "05-09-2017 07:42", 7},
		{"afternoon", "05-09-2017 15:10", 15},
		{"single digit", "05-09-2017 9:05", 9},
		{"extra whitespace", "  05-09-2017   23:01 ", 23},
		{"no time part", "05-09-2017", 0},
		{"empty", "", 0},
		{"non-numeric", "05-09-2017 xx:10", 0},
		{"above range clamps", "05-09-2017 27:00", 23},
		{"negative clamps", "05-09-2017 -3:00", 0},
		{"trailing garbage", "05-09-2017 08h30", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHour(tt.input))
		})
	}
}

func TestNormalizeClass(t *testing.T) {
	assert.Equal(t, ClassCar, normalizeClass("Car"))
	assert.Equal(t, ClassTruck, normalizeClass(" truck "))
	assert.Equal(t, ClassBus, normalizeClass("BUS"))
	assert.Equal(t, ClassCar, normalizeClass("van"))
	assert.Equal(t, ClassCar, normalizeClass(""))
}
