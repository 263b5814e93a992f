package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"worldprod/internal/storage"
)

func TestParseCSV(t *testing.T) {
	blob := []byte("Page_Number,Commodity_Name,Units\n20,Aluminum,thousand metric tons\n\n21,Antimony\n")
	entries, err := ParseCSV(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d", len(entries))
	}
	if entries[0].Unit != "thousand metric tons" || entries[1].Unit != "" {
		t.Fatalf("entries=%+v", entries)
	}
}

func TestParseCSVErrors(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: ""},
		{name: "missing column", blob: "page_number,units\n1,t\n"},
		{name: "bad page", blob: "page_number,commodity_name\nabc,Zinc\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCSV([]byte(tc.blob)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.yaml")
	blob := "- page: 20\n  category: Aluminum\n  unit: thousand metric tons\n- page: 21\n  category: Antimony\n"
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	idx := BuildIndex(entries)
	e, ok := idx.Resolve(20)
	if !ok || e.Category != "Aluminum" || e.Unit != "thousand metric tons" {
		t.Fatalf("got %+v %v", e, ok)
	}
	if _, ok := idx.Resolve(99); ok {
		t.Fatal("unexpected hit")
	}
}

func TestLoadFallsBackToDatabase(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := testConfig()
	cfg.LookupFile = ""
	idx, err := Load(db, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if idx != nil {
		t.Fatal("expected no index for empty table")
	}

	path := filepath.Join(t.TempDir(), "commodity_names.csv")
	if err := os.WriteFile(path, []byte("page_number,commodity_name\n7,Zinc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := ImportFile(db, path)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	idx, err = Load(db, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := idx.Resolve(7); !ok || e.Category != "Zinc" {
		t.Fatalf("got %+v %v", e, ok)
	}
}

func TestLoadStatus(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	st, err := LoadStatus(db)
	if err != nil {
		t.Fatal(err)
	}
	if st.Pages != 0 || st.LastSync != nil || st.LastImport != nil {
		t.Fatalf("fresh status=%+v", st)
	}

	path := filepath.Join(t.TempDir(), "commodity_names.csv")
	if err := os.WriteFile(path, []byte("page_number,commodity_name\n7,Zinc\n8,Tin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportFile(db, path); err != nil {
		t.Fatal(err)
	}
	st, err = LoadStatus(db)
	if err != nil {
		t.Fatal(err)
	}
	if st.Pages != 2 || st.LastImport == nil || *st.LastImport != path || st.LastSync != nil {
		t.Fatalf("status=%+v", st)
	}
}
