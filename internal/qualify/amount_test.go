package qualify

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   int64
		wantOK bool
	}{
		{"peso sign with commas", "₱600,000", 600000, true},
		{"k suffix", "600k", 600000, true},
		{"decimal million", "1.2m", 1200000, true},
		{"no numbers", "no numbers here", 0, false},
		{"php marker", "php 450,000", 450000, true},
		{"p marker", "p350k", 350000, true},
		{"dot thousands", "600.000", 600000, true},
		{"thousand word", "150 thousand", 150000, true},
		{"thou", "200 thou", 200000, true},
		{"million word", "1.5 million", 1500000, true},
		{"mil", "2 mil", 2000000, true},
		{"single digit with suffix", "1m", 1000000, true},
		{"decimal k", "25.5k", 25500, true},
		{"cents dropped", "1,500,000.50", 1500000, true},
		{"first amount wins", "100k dp, 800k total", 100000, true},
		{"inside sentence", "budget ko mga 500k lang", 500000, true},
		{"single digit alone", "2 weeks", 0, false},
		{"too many digits", "1234567890", 0, false},
		{"glued to word", "l300", 0, false},
		{"suffix glued to word", "2 months", 0, false},
		{"empty", "", 0, false},
		{"short cents rounded down", "12.50", 12, true},
		{"decimal comma before suffix", "p 1,5m", 1500000, true},
		{"decimal comma k", "2,5k", 2500, true},
		{"comma thousands before suffix", "1,500k", 1500000, true},
		{"bare model year", "2020", 0, false},
		{"year with marker", "₱2020", 2020, true},
		{"year with suffix", "2020k", 2020000, true},
		{"year-like with separator", "2,020", 2020, true},
		{"bare number past year range", "2500", 2500, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindAmountsKeepsRaw(t *testing.T) {
	amounts := FindAmounts("dp ₱150k tapos 30 days")
	if len(amounts) != 2 {
		t.Fatalf("expected 2 amounts, got %d: %+v", len(amounts), amounts)
	}
	if amounts[0].Value != 150000 || amounts[0].Raw != "₱150k" {
		t.Errorf("first amount = %+v", amounts[0])
	}
	if amounts[1].Value != 30 {
		t.Errorf("second amount = %+v", amounts[1])
	}
}

func TestExtractBudgetSkipsSmallNumbers(t *testing.T) {
	for _, text := range []string{
		"30 days pa bago ako kumuha",
		"vios 2020 model, cash",
		"2019 montero, cash",
		"yung 1995 na corolla",
	} {
		if got := ExtractBudget(Normalize(text)); got.Found() {
			t.Fatalf("ExtractBudget(%q): expected no budget, got %+v", text, got)
		}
	}
	if got := ExtractBudget(Normalize("2019 montero, 800k cash")); got.Value != "800000" {
		t.Fatalf("model year should not shadow the real amount, got %+v", got)
	}
	if got := ExtractBudget(Normalize("₱2,020,000 cash")); got.Value != "2020000" {
		t.Fatalf("unexpected budget %+v", got)
	}
	got := ExtractBudget("within 30 days, 250k cash")
	if got.Value != "250000" || got.Tier != TierExplicit {
		t.Fatalf("unexpected budget %+v", got)
	}
}
