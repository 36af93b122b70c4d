package chart

import "time"

// vimshottariOrder is the fixed nine-lord dasha sequence. It repeats
// three times across the 27 nakshatras (see NakshatraLord).
var vimshottariOrder = [9]string{
	"Ketu", "Venus", "Sun", "Moon", "Mars", "Rahu", "Jupiter", "Saturn", "Mercury",
}

// vimshottariYears holds each lord's dasha length in years, in the
// same order as vimshottariOrder. The cycle totals 120 years.
var vimshottariYears = [9]float64{7, 20, 6, 10, 7, 18, 16, 19, 17}

const vimshottariCycleYears = 120.0
const daysPerYear = 365.2425

// DashaPeriod is one lord's span within the Vimshottari sequence.
type DashaPeriod struct {
	Lord  string
	Start time.Time
	End   time.Time
}

// VimshottariDasha returns one pass through the nine mahadasha lords
// starting at birth, given the Moon's sidereal longitude at
// birth. The first period's remaining length is the fraction of its
// nakshatra left to traverse; every period after it runs the lord's
// full span.
func VimshottariDasha(moonSiderealLongitudeDeg float64, birth time.Time) []DashaPeriod {
	nakIndex, _, _ := Nakshatra(moonSiderealLongitudeDeg)
	deg := normalize(moonSiderealLongitudeDeg)
	withinNakshatra := deg - float64(nakIndex)*nakshatraSpanDeg
	elapsedFraction := withinNakshatra / nakshatraSpanDeg

	startLord := nakIndex % 9
	periods := make([]DashaPeriod, 0, 9)
	cursor := birth

	for i := 0; i < 9; i++ {
		lordIdx := (startLord + i) % 9
		years := vimshottariYears[lordIdx]
		if i == 0 {
			years *= 1 - elapsedFraction
		}
		days := years * daysPerYear
		end := cursor.Add(time.Duration(days * 24 * float64(time.Hour)))
		periods = append(periods, DashaPeriod{
			Lord:  vimshottariOrder[lordIdx],
			Start: cursor,
			End:   end,
		})
		cursor = end
	}
	return periods
}
