package pipeline

import (
	"reflect"
	"testing"

	"worldprod/internal"
)

func TestCleanEntity(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "United States5, excludes Puerto Rico (partial)", want: "United States"},
		{in: "World total (rounded)", want: "World total"},
		{in: "World total (rounded", want: "World total"},
		{in: "Bauxite (dry)2", want: "Bauxite"},
		{in: "  Congo  (Kinshasa)6 ", want: "Congo"},
		{in: "Other countries7", want: "Other countries"},
		{in: "W", want: "World total"},
		{in: "w", want: "World total"},
		{in: "Korea, Republic of", want: "Korea"},
		{in: "Côte d’Ivoire", want: "Côte dIvoire"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := CleanEntity(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestCleanMetricCategoryUnit(t *testing.T) {
	if got := CleanMetric("Mine production (gross weight)3"); got != "Mine production" {
		t.Fatalf("metric got %q", got)
	}
	if got := CleanCategory("Aluminum (primary)1"); got != "Aluminum (primary)" {
		t.Fatalf("category got %q", got)
	}
	if got := CleanUnit("  thousand   metric\ttons "); got != "thousand metric tons" {
		t.Fatalf("unit got %q", got)
	}
}

func TestCleanMetricKeepsTrailingE(t *testing.T) {
	// The estimate marker is read from the year column only, so a trailing
	// letter on the label is never stripped.
	cases := []struct {
		in   string
		want string
	}{
		{in: "Mine productione", want: "Mine productione"},
		{in: "Bauxite", want: "Bauxite"},
		{in: "Smelter, primary3", want: "Smelter"},
		{in: "Mine, recoverable contente", want: "Mine"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := CleanMetric(tc.in); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestConsolidate(t *testing.T) {
	records := []internal.WideRecord{
		{Key: internal.RecordKey{Source: "s", Entity: "United States1", Metric: "Copper"}, Cells: map[string]string{"PROD_2022": "100", "PROD_2023": ""}},
		{Key: internal.RecordKey{Source: "s", Entity: "Chile", Metric: "Copper"}, Cells: map[string]string{"PROD_2022": "5"}},
		{Key: internal.RecordKey{Source: "s", Entity: "United States2", Metric: "Copper"}, Cells: map[string]string{"PROD_2022": "999", "PROD_2023": "110"}},
	}
	out, collisions, dupes := Consolidate(records)
	if len(out) != 2 {
		t.Fatalf("len=%d", len(out))
	}
	if collisions != 1 || dupes != 1 {
		t.Fatalf("collisions=%d dupes=%d", collisions, dupes)
	}
	us := out[0]
	if us.Key.Entity != "United States" || us.Cells["PROD_2022"] != "100" || us.Cells["PROD_2023"] != "110" {
		t.Fatalf("us=%+v", us)
	}
	if records[0].Cells["PROD_2023"] != "" {
		t.Fatal("input cells were mutated")
	}
}

func TestPrune(t *testing.T) {
	records := []internal.WideRecord{
		{Key: internal.RecordKey{Entity: "Chile"}, Cells: map[string]string{"PROD_2022": "5,000"}},
		{Key: internal.RecordKey{Entity: ""}, Cells: map[string]string{"PROD_2022": "7"}},
		{Key: internal.RecordKey{Entity: "Mine production"}, Cells: map[string]string{"PROD_2022": " ", "PROD_2023": ""}},
		{Key: internal.RecordKey{Entity: "Peru"}, Cells: map[string]string{"PROD_2022": "W"}},
		{Key: internal.RecordKey{Entity: "Bolivia"}},
	}
	out, drops := Prune(records)

	var got []string
	for _, rec := range out {
		got = append(got, rec.Key.Entity)
	}
	if !reflect.DeepEqual(got, []string{"Chile", "Peru"}) {
		t.Fatalf("got %v want %v", got, []string{"Chile", "Peru"})
	}
	if drops[DropBlankEntity] != 1 || drops[DropAllBlank] != 2 {
		t.Fatalf("drops=%v", drops)
	}
}
