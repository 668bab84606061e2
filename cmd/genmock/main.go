// Command genmock writes a synthetic catalog of traffic sensor day files, one
// CSV per day, for local runs and demos. Output is deterministic for a seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data \
//	  -start 2017-09-01 -end 2017-10-31 \
//	  -rows 1200 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

const header = "Timestamp,Class,Entry,Exit,Distance_m,Speed_kmh"

// hourWeights shapes daily volume: quiet nights, morning and evening peaks.
var hourWeights = [24]float64{
	0.2, 0.15, 0.1, 0.1, 0.2, 0.5, 1.2, 2.4, 2.8, 1.8, 1.3, 1.3,
	1.5, 1.4, 1.4, 1.6, 2.2, 2.9, 2.6, 1.7, 1.1, 0.8, 0.5, 0.3,
}

var directions = []string{"north", "south", "east", "west"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "output directory for day files")
	startStr := flag.String("start", "2017-09-01", "first day (YYYY-MM-DD)")
	endStr := flag.String("end", "2017-10-31", "last day (YYYY-MM-DD)")
	rows := flag.Int("rows", 1200, "average crossings per day")
	seed := flag.Uint64("seed", 42, "random seed")
	malformed := flag.Float64("malformed", 0.002, "fraction of rows written malformed")
	flag.Parse()

	start, err := time.Parse(time.DateOnly, *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, *endStr)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if *rows <= 0 {
		return fmt.Errorf("-rows must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	catalog := domain.NewCatalog(start, end)
	days := catalog.Days()

	var records []domain.VehicleCrossing
	for i, day := range days {
		d, _ := time.Parse(time.DateOnly, day.Date)
		text := generateDay(rng, d, *rows, *malformed)
		if err := os.WriteFile(filepath.Join(*outDir, day.FileID), []byte(text), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", day.FileID, err)
		}
		records = append(records, domain.ParseRows(text, i)...)
	}
	log.Printf("wrote %d day files to %s", len(days), *outDir)

	printStats(domain.Aggregate(records, days, 80, domain.RangeAll))
	return nil
}

func generateDay(rng *rand.Rand, day time.Time, avgRows int, malformed float64) string {
	// Weekends carry about two thirds of weekday volume.
	volume := float64(avgRows)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		volume *= 0.65
	}

	var total float64
	for _, w := range hourWeights {
		total += w
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	date := day.Format("02-01-2006")
	for hour, w := range hourWeights {
		n := int(volume * w / total)
		for range n {
			if rng.Float64() < malformed {
				fmt.Fprintf(&b, "%s %02d:%02d,car,north\n", date, hour, rng.IntN(60))
				continue
			}
			entry := directions[rng.IntN(len(directions))]
			exit := directions[rng.IntN(len(directions))]
			fmt.Fprintf(&b, "%s %02d:%02d,%s,%s,%s,%.1f,%.1f\n",
				date, hour, rng.IntN(60), vehicleClass(rng), entry, exit,
				20+rng.Float64()*40, speed(rng, hour))
		}
	}
	return b.String()
}

func vehicleClass(rng *rand.Rand) string {
	switch p := rng.Float64(); {
	case p < 0.78:
		return "car"
	case p < 0.94:
		return "truck"
	default:
		return "bus"
	}
}

// speed draws from a normal distribution that runs faster at night.
func speed(rng *rand.Rand, hour int) float64 {
	mean := 62.0
	if hour < 6 || hour >= 22 {
		mean = 74
	}
	return max(5, mean+rng.NormFloat64()*12)
}

func printStats(ds *domain.AggregatedDataset) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Period: %s (%d days)\n", ds.DateRangeLabel, len(ds.AllDates))
	fmt.Printf("Total: %d\n", ds.TotalVehicles)
	fmt.Printf("Over limit: %d\n", ds.OverLimitCount)
	fmt.Printf("Avg speed: %.1f km/h (%.1f mph)\n", ds.AvgSpeedKmh, ds.AvgSpeedMph)
	fmt.Print("By class:")
	for _, c := range ds.PerClass {
		fmt.Printf(" %s=%d", c.Class, c.Value)
	}
	fmt.Println()
	fmt.Print("By direction:")
	for _, d := range ds.PerDirection {
		fmt.Printf(" %s=%d", d.Direction, d.Count)
	}
	fmt.Println()
	fmt.Printf("Risk by hour: %v\n", ds.RiskByHour)
}
