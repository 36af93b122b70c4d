package chart

var tithiNames = [30]string{
	"Shukla Pratipada", "Shukla Dwitiya", "Shukla Tritiya", "Shukla Chaturthi",
	"Shukla Panchami", "Shukla Shashthi", "Shukla Saptami", "Shukla Ashtami",
	"Shukla Navami", "Shukla Dashami", "Shukla Ekadashi", "Shukla Dwadashi",
	"Shukla Trayodashi", "Shukla Chaturdashi", "Purnima",
	"Krishna Pratipada", "Krishna Dwitiya", "Krishna Tritiya", "Krishna Chaturthi",
	"Krishna Panchami", "Krishna Shashthi", "Krishna Saptami", "Krishna Ashtami",
	"Krishna Navami", "Krishna Dashami", "Krishna Ekadashi", "Krishna Dwadashi",
	"Krishna Trayodashi", "Krishna Chaturdashi", "Amavasya",
}

const tithiSpanDeg = 12.0

// Tithi returns the lunar-day index (0..29) and name for the Moon-Sun
// sidereal longitude separation.
func Tithi(moonSiderealLongitudeDeg, sunSiderealLongitudeDeg float64) (index int, name string) {
	diff := normalize(moonSiderealLongitudeDeg - sunSiderealLongitudeDeg)
	index = int(diff / tithiSpanDeg)
	if index > 29 {
		index = 29
	}
	return index, tithiNames[index]
}
