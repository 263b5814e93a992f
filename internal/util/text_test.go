package util

import "testing"

func TestNormalizeCell(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "nbsp", input: "\u00a0United\u00a0States\u00a0", want: "United States"},
		{name: "full width digits", input: "２０２２", want: "2022"},
		{name: "control chars", input: "World\x00 total\n", want: "World total"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeCell(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestMatchText(t *testing.T) {
	if got := MatchText("  World   TOTAL (rounded)"); got != "world total (rounded)" {
		t.Fatalf("got %q", got)
	}
}
