package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"worldprod/internal"
)

func TestMergeHeader_InsufficientRows(t *testing.T) {
	for _, rows := range []internal.RawTable{nil, {}, {{"", "2022"}}} {
		got, err := MergeHeader(rows, "_")
		if !errors.Is(err, ErrInsufficientRows) {
			t.Fatalf("got %v want %v", err, ErrInsufficientRows)
		}
		if got.Header != nil || got.Rows != nil {
			t.Fatalf("expected no output, got %+v", got)
		}
	}
}

func TestMergeHeader_ReserveAdjacency(t *testing.T) {
	rows := internal.RawTable{
		{"", "Production", "", "Reserves", ""},
		{"", "2022", "2023", "", ""},
		{"Chile", "1", "2", "3", ""},
	}
	got, err := MergeHeader(rows, "_")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"", "Production_2022", "Production_2023", "Reserves", "Reserves"}
	if !reflect.DeepEqual(got.Header, want) {
		t.Fatalf("got %q want %q", got.Header, want)
	}
	if got.Shape.IDColumns != 1 || got.Shape.Width != 5 {
		t.Fatalf("shape=%+v", got.Shape)
	}
	if len(got.Rows) != 1 || len(got.Rows[0]) != 5 {
		t.Fatalf("rows=%#v", got.Rows)
	}
}

func TestMergeHeader(t *testing.T) {
	rows := internal.RawTable{
		{"Key", "Mine production", ""},
		{"", "2022", "2023e"},
		{"Peru", "2,200"},
		{"Chile"},
	}
	got, err := MergeHeader(rows, " ")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"", "Mine production 2022", "Mine production 2023e"}
	if !reflect.DeepEqual(got.Header, want) {
		t.Fatalf("got %q want %q", got.Header, want)
	}
	wantRows := [][]string{{"Peru", "2,200", ""}, {"Chile", "", ""}}
	if !reflect.DeepEqual(got.Rows, wantRows) {
		t.Fatalf("got %#v want %#v", got.Rows, wantRows)
	}
}

func TestFillHeaderGaps(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "reserve not copied backward", in: []string{"", "Production", "", "Reserves", ""}, want: []string{"", "Production", "Production", "Reserves", "Reserves"}},
		{name: "look ahead", in: []string{"", "", "Mine production", "Reserves"}, want: []string{"", "Mine production", "Mine production", "Reserves"}},
		{name: "reserve with nothing on the left", in: []string{"", "", "Reserves"}, want: []string{"", "", "Reserves"}},
		{name: "case insensitive", in: []string{"", "Smelter", "", "RESERVE BASE"}, want: []string{"", "Smelter", "Smelter", "RESERVE BASE"}},
		{name: "all empty", in: []string{"", "", ""}, want: []string{"", "", ""}},
		{name: "key forced empty", in: []string{"Country", "", "Output"}, want: []string{"", "Output", "Output"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FillHeaderGaps(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestHeaderGaps(t *testing.T) {
	got := HeaderGaps([]string{"", "A_2022", "", "B", " "})
	if !reflect.DeepEqual(got, []int{2, 4}) {
		t.Fatalf("got %v", got)
	}
	if HeaderGaps([]string{"", "A"}) != nil {
		t.Fatal("expected no gaps")
	}
}
