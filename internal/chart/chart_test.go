package chart_test

import (
	"testing"
	"time"

	"example.com/sephchart/internal/chart"
)

func TestSignBoundaries(t *testing.T) {
	cases := []struct {
		deg  float64
		want string
	}{
		{0, "Aries"},
		{29.999, "Aries"},
		{30, "Taurus"},
		{359.999, "Pisces"},
		{360, "Aries"}, // normalizes to 0
		{-30, "Pisces"},
	}
	for _, c := range cases {
		_, name := chart.Sign(c.deg)
		if name != c.want {
			t.Fatalf("Sign(%g) = %s, want %s", c.deg, name, c.want)
		}
	}
}

func TestNakshatraAndPada(t *testing.T) {
	idx, name, pada := chart.Nakshatra(0)
	if idx != 0 || name != "Ashwini" || pada != 1 {
		t.Fatalf("Nakshatra(0) = %d %s pada%d, want 0 Ashwini pada1", idx, name, pada)
	}

	// Each nakshatra spans 13deg20' = 13.3333...deg, in four padas of
	// 3deg20'. The third pada of Ashwini starts at 2*3.3333.
	idx, name, pada = chart.Nakshatra(7.0)
	if idx != 0 || name != "Ashwini" || pada != 3 {
		t.Fatalf("Nakshatra(7.0) = %d %s pada%d, want 0 Ashwini pada3", idx, name, pada)
	}

	idx, name, _ = chart.Nakshatra(359.0)
	if idx != 26 || name != "Revati" {
		t.Fatalf("Nakshatra(359) = %d %s, want 26 Revati", idx, name)
	}
}

func TestNakshatraLordCyclesNineLords(t *testing.T) {
	if chart.NakshatraLord(0) != "Ketu" {
		t.Fatalf("nakshatra 0 lord = %s, want Ketu", chart.NakshatraLord(0))
	}
	if chart.NakshatraLord(9) != chart.NakshatraLord(0) {
		t.Fatalf("lord cycle should repeat every 9 nakshatras")
	}
	if chart.NakshatraLord(26) != "Mercury" {
		t.Fatalf("nakshatra 26 lord = %s, want Mercury", chart.NakshatraLord(26))
	}
}

func TestTithiNewAndFullMoon(t *testing.T) {
	idx, name := chart.Tithi(0, 0)
	if idx != 0 || name != "Shukla Pratipada" {
		t.Fatalf("Tithi(0,0) = %d %s, want 0 Shukla Pratipada", idx, name)
	}
	idx, name = chart.Tithi(179.9, 0)
	if idx != 14 || name != "Purnima" {
		t.Fatalf("Tithi(179.9,0) = %d %s, want 14 Purnima", idx, name)
	}
	idx, name = chart.Tithi(359, 0)
	if idx != 29 || name != "Amavasya" {
		t.Fatalf("Tithi(359,0) = %d %s, want 29 Amavasya", idx, name)
	}
}

func TestVimshottariDashaCycleTotalsNineLords(t *testing.T) {
	birth := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	periods := chart.VimshottariDasha(0, birth) // nakIndex 0 (Ashwini) -> Ketu first, no elapsed fraction
	if len(periods) != 9 {
		t.Fatalf("want 9 mahadasha periods, got %d", len(periods))
	}
	if periods[0].Lord != "Ketu" {
		t.Fatalf("first lord = %s, want Ketu", periods[0].Lord)
	}
	if !periods[0].Start.Equal(birth) {
		t.Fatalf("first period should start at birth")
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i].Start.Equal(periods[i-1].End) {
			t.Fatalf("period %d does not start where period %d ended", i, i-1)
		}
	}
}

func TestVimshottariDashaPartialFirstPeriod(t *testing.T) {
	birth := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	// Halfway through Ashwini (nakshatra span ~13.333deg) should roughly
	// halve Ketu's 7-year first period.
	halfway := 13.333333 / 2
	periods := chart.VimshottariDasha(halfway, birth)
	full := chart.VimshottariDasha(0, birth)
	firstSpan := periods[0].End.Sub(periods[0].Start)
	fullFirstSpan := full[0].End.Sub(full[0].Start)
	if firstSpan >= fullFirstSpan {
		t.Fatalf("partial first period (%s) should be shorter than the full period (%s)", firstSpan, fullFirstSpan)
	}
}

func TestDignityEvaluate(t *testing.T) {
	engine, err := chart.NewDignityEngine()
	if err != nil {
		t.Fatalf("NewDignityEngine: %v", err)
	}
	if got := engine.Evaluate("Sun", 0); got != chart.Exalted {
		t.Fatalf("Sun in Aries = %s, want exalted", got)
	}
	if got := engine.Evaluate("Sun", 6); got != chart.Debilitated {
		t.Fatalf("Sun in Libra = %s, want debilitated", got)
	}
	if got := engine.Evaluate("Sun", 4); got != chart.OwnSign {
		t.Fatalf("Sun in Leo = %s, want own_sign", got)
	}
	if got := engine.Evaluate("Sun", 2); got != chart.Neutral {
		t.Fatalf("Sun in Gemini = %s, want neutral", got)
	}
	if got := engine.Evaluate("Rahu", 0); got != chart.Neutral {
		t.Fatalf("lunar node dignity = %s, want neutral (undefined)", got)
	}
}
