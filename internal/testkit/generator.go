package testkit

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"hsedash/domain/finding"
)

// GeneratorConfig configures the synthetic findings export.
type GeneratorConfig struct {
	Findings      int       `json:"findings"`
	DuplicateRate float64   `json:"duplicate_rate"`
	DummyRate     float64   `json:"dummy_rate"`
	BadDateRate   float64   `json:"bad_date_rate"`
	StartDate     time.Time `json:"start_date"`
	Days          int       `json:"days"`
	Seed          int64     `json:"seed"`
}

// DefaultGeneratorConfig returns a quarter of findings with some noise.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Findings:      200,
		DuplicateRate: 0.1,
		DummyRate:     0.05,
		BadDateRate:   0.02,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:          90,
		Seed:          42,
	}
}

var (
	categories = []string{"Near Miss", "Unsafe Condition", "Unsafe Act", "Environment"}
	statuses   = []string{"Open", "Closed", "Closed", "Need Verification"}
	sites      = []string{"Jetty", "Boiler House", "Coal Yard", "Workshop", "Control Room"}
	objects    = []string{"Pipe Leak", "Pipe Support", "Valve", "Cable Tray", "Helmet", "Scaffold Board", "Fire Extinguisher"}
	reporters  = []string{"ani", "budi", "citra", "dewi", "eko"}
	units      = []string{"Maintenance", "Operations", "HSE", "Logistics"}
	conditions = []string{"kabel terkelupas di area", "pipa bocor dekat pompa", "apar kadaluarsa", "scaffold tidak terpasang dengan benar"}
)

// GenerateExport produces a deterministic export for cfg.Seed. Each finding
// lists one to three objects; duplicates repeat an earlier finding's id with
// different object text, dummy rows carry "Dummy" in the object name, and
// bad dates are unparseable text.
func GenerateExport(cfg GeneratorConfig) *finding.RawDataset {
	rng := rand.New(rand.NewSource(cfg.Seed))
	pick := func(values []string) string { return values[rng.Intn(len(values))] }

	var rows [][]string
	for i := 0; i < cfg.Findings; i++ {
		id := fmt.Sprintf("HSE-%05d", i+1)

		date := cfg.StartDate.AddDate(0, 0, rng.Intn(maxInt(cfg.Days, 1))).Format("02/01/2006")
		if rng.Float64() < cfg.BadDateRate {
			date = "not recorded"
		}

		n := 1 + rng.Intn(3)
		objs := make([]string, n)
		for j := range objs {
			objs[j] = pick(objects)
		}
		objectText := strings.Join(objs, ", ")
		if rng.Float64() < cfg.DummyRate {
			objectText = "Dummy " + objectText
		}

		row := []string{id, date, pick(categories), pick(statuses), pick(sites), objectText, pick(reporters), pick(units), pick(conditions)}
		rows = append(rows, row)

		if len(rows) > 1 && rng.Float64() < cfg.DuplicateRate {
			dup := append([]string{}, rows[rng.Intn(len(rows)-1)]...)
			dup[5] = pick(objects)
			rows = append(rows, dup)
		}
	}

	data := Export(rows...)
	data.Source = fmt.Sprintf("generated(seed=%d)", cfg.Seed)
	return data
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
