package pipeline

import (
	"reflect"
	"testing"

	"worldprod/internal"
)

func headedFixture() internal.HeadedTable {
	return internal.HeadedTable{
		Shape:  internal.TableShape{IDColumns: 1, Width: 4},
		Header: []string{"", "Mine production_2022", "Mine production_2023e", "Reserves"},
		Rows: [][]string{
			{"Chile", "5,000", "5,200", "190,000"},
			{"Peru", "2,200", "", "120,000"},
		},
	}
}

func TestAttachSource(t *testing.T) {
	got := AttachSource(headedFixture(), "mcs2024")
	if got.Shape.IDColumns != 2 || got.Shape.Width != 5 {
		t.Fatalf("shape=%+v", got.Shape)
	}
	if got.Header[0] != "" || got.Header[1] != "" || got.Header[2] != "Mine production_2022" {
		t.Fatalf("header=%q", got.Header)
	}
	if got.Rows[1][0] != "mcs2024" || got.Rows[1][1] != "Peru" {
		t.Fatalf("row=%q", got.Rows[1])
	}
}

func TestMelt(t *testing.T) {
	recs, err := Melt(AttachSource(headedFixture(), "mcs2024"), "page_1.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 6 {
		t.Fatalf("len=%d", len(recs))
	}
	order := []string{}
	for _, r := range recs {
		order = append(order, r.Entity+"/"+r.MetricLabel)
	}
	want := []string{
		"Chile/Mine production_2022", "Chile/Mine production_2023e", "Chile/Reserves",
		"Peru/Mine production_2022", "Peru/Mine production_2023e", "Peru/Reserves",
	}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("got %q want %q", order, want)
	}
	if recs[0].Source != "mcs2024" || recs[0].TableID != "page_1.csv" || recs[0].Value != "5,000" {
		t.Fatalf("first=%+v", recs[0])
	}
}

func TestMelt_RequiresSourceColumn(t *testing.T) {
	if _, err := Melt(headedFixture(), "x"); err == nil {
		t.Fatal("expected error for a table without the source column")
	}
}

func TestMelt_KeepsUnlabeledColumns(t *testing.T) {
	tbl := internal.HeadedTable{
		Shape:  internal.TableShape{IDColumns: 1, Width: 3},
		Header: []string{"", "A_2022", ""},
		Rows:   [][]string{{"X", "1", "note"}},
	}
	recs, err := Melt(AttachSource(tbl, "s"), "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].MetricLabel != "" || recs[1].Value != "note" {
		t.Fatalf("recs=%+v", recs)
	}
}

func TestSplitYear(t *testing.T) {
	recs := []internal.LongRecord{
		{MetricLabel: "Mine production_2022"},
		{MetricLabel: "Mine production_2023E"},
		{MetricLabel: "Reserves"},
		{MetricLabel: ""},
		{MetricLabel: "  "},
		{MetricLabel: "Capacity_1999"},
		{MetricLabel: "Capacity_2999"},
		{MetricLabel: "Output 2022"},
	}
	got, drops := SplitYear(recs, "_")
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	if got[1].Year != "2023e" || got[1].MetricBase != "Mine production" {
		t.Fatalf("got %+v", got[1])
	}
	if got[2].Year != "1999" {
		t.Fatalf("got %+v", got[2])
	}
	if drops[DropEmptyLabel] != 2 || drops[DropNoYearSuffix] != 3 || drops.Total() != 5 {
		t.Fatalf("drops=%v", drops)
	}
}

func TestPivot_DuplicateKeepsFirst(t *testing.T) {
	rec := func(value string) internal.YearedRecord {
		return internal.YearedRecord{
			LongRecord: internal.LongRecord{Source: "s", Entity: "Chile", MetricLabel: "Copper_2022", Value: value},
			Year:       "2022",
			MetricBase: "Copper",
		}
	}
	// The later value is discarded; the count is the only trace of the loss.
	wide, cols, dupes := Pivot([]internal.YearedRecord{rec(""), rec("5,000"), rec("6,000"), rec("")}, "PROD_")
	if len(wide) != 1 || !reflect.DeepEqual(cols, []string{"PROD_2022"}) {
		t.Fatalf("wide=%+v cols=%v", wide, cols)
	}
	if got := wide[0].Cells["PROD_2022"]; got != "5,000" {
		t.Fatalf("got %q want %q", got, "5,000")
	}
	if dupes != 1 {
		t.Fatalf("dupes=%d", dupes)
	}
}

func TestPivot_ColumnsSorted(t *testing.T) {
	mk := func(entity, year string) internal.YearedRecord {
		return internal.YearedRecord{LongRecord: internal.LongRecord{Entity: entity, Value: "1"}, Year: year, MetricBase: "M"}
	}
	wide, cols, _ := Pivot([]internal.YearedRecord{mk("B", "2023e"), mk("A", "2022"), mk("B", "2023")}, "")
	want := []string{"PROD_2022", "PROD_2023", "PROD_2023e"}
	if !reflect.DeepEqual(cols, want) {
		t.Fatalf("got %v want %v", cols, want)
	}
	if wide[0].Key.Entity != "B" || wide[1].Key.Entity != "A" {
		t.Fatalf("first-seen order lost: %+v", wide)
	}
}

func TestMeltPivotRoundTrip(t *testing.T) {
	tbl := internal.HeadedTable{
		Shape:  internal.TableShape{IDColumns: 1, Width: 4},
		Header: []string{"", "Bauxite_2021", "Bauxite_2022", "Alumina_2022"},
		Rows: [][]string{
			{"Australia", "110,000", "100,000", "20,000"},
			{"Guinea", "85,000", "", "W"},
			{"Brazil", "31,000", "33,000", "10,000"},
		},
	}
	recs, err := Melt(AttachSource(tbl, "mcs2024"), "t")
	if err != nil {
		t.Fatal(err)
	}
	yeared, drops := SplitYear(recs, "_")
	if drops.Total() != 0 {
		t.Fatalf("drops=%v", drops)
	}
	wide, _, dupes := Pivot(yeared, "PROD_")
	if dupes != 0 {
		t.Fatalf("dupes=%d", dupes)
	}

	cells := map[internal.RecordKey]map[string]string{}
	for _, w := range wide {
		cells[w.Key] = w.Cells
	}
	for _, row := range tbl.Rows {
		for c := 1; c < len(row); c++ {
			label := tbl.Header[c]
			metric, year := label[:len(label)-5], label[len(label)-4:]
			key := internal.RecordKey{Source: "mcs2024", Entity: row[0], Metric: metric}
			if got := cells[key]["PROD_"+year]; got != row[c] {
				t.Fatalf("%v %s: got %q want %q", key, year, got, row[c])
			}
		}
	}
}
