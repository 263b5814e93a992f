package pipeline

import "testing"

func TestClassifyYearToken(t *testing.T) {
	cases := []struct {
		token string
		want  YearClass
	}{
		{token: "1995", want: YearStrict},
		{token: "2023e", want: YearStrict},
		{token: "2022E", want: YearStrict},
		{token: " 2022 ", want: YearStrict},
		{token: "２０２２", want: YearStrict},
		{token: "19.96~", want: YearLoose},
		{token: "t995", want: YearLoose},
		{token: "ll95", want: YearLoose},
		{token: "1~", want: YearLoose},
		{token: ".2O22", want: YearNone},
		{token: ".2022", want: YearLoose},
		{token: "T995e", want: YearLoose},
		{token: "20!9", want: YearLoose},
		{token: "~~", want: YearLoose},
		{token: "1234567890", want: YearNone},
		{token: "Aluminum", want: YearNone},
		{token: "Reserves", want: YearNone},
		{token: "", want: YearNone},
		{token: "3022", want: YearNone},
	}

	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			if got := ClassifyYearToken(tc.token); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestYearModeAccepts(t *testing.T) {
	loose := []string{"19.96~", "t995", "ll95", "1~"}
	for _, tok := range loose {
		if !YearModeLoose.Accepts(tok) {
			t.Fatalf("loose mode rejected %q", tok)
		}
		if YearModeStrict.Accepts(tok) {
			t.Fatalf("strict mode accepted %q", tok)
		}
	}
	for _, tok := range []string{"1995", "2023e"} {
		if !YearModeStrict.Accepts(tok) || !YearModeLoose.Accepts(tok) {
			t.Fatalf("%q should pass both modes", tok)
		}
	}
}
