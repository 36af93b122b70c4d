package chart

import (
	"fmt"
	"time"

	"example.com/sephchart/internal/astro"
	"example.com/sephchart/internal/seph"
)

// PositionSource is satisfied by both *seph.Handle and *seph.HandlePool,
// so the assembly algorithm below never needs to know which one a
// caller is using.
type PositionSource interface {
	Position(body int32, jd float64) (seph.Vector, error)
	Flags(body int32) (seph.BodyFlags, error)
}

// bodyIDs follows the file's own Sun=0, Moon=1, Mercury=2, ... Saturn=6
// ordering (section 3's data model).
var bodyIDs = map[string]int32{
	"Mercury": 2,
	"Venus":   3,
	"Mars":    4,
	"Jupiter": 5,
	"Saturn":  6,
}

const (
	earthBodyID = 0
	moonBodyID  = 1
)

// Input is the RPC request contract: date of birth, local time, a
// location, and an output language, matching the shape the original
// horoscope service consumes.
type Input struct {
	DOB      string // "2006-01-02"
	Time     string // "15:04" or "15:04:05"
	Lat      float64
	Lng      float64
	TZ       string // IANA zone name; "" means UTC
	Language string
}

// UTC resolves DOB+Time in the requested timezone and returns the
// equivalent UTC instant.
func (in Input) UTC() (time.Time, error) {
	loc := time.UTC
	if in.TZ != "" {
		l, err := time.LoadLocation(in.TZ)
		if err != nil {
			return time.Time{}, fmt.Errorf("chart: load timezone %q: %w", in.TZ, err)
		}
		loc = l
	}
	layout := "2006-01-02 15:04:05"
	raw := in.DOB + " " + in.Time
	if len(in.Time) <= 5 {
		raw += ":00"
	}
	t, err := time.ParseInLocation(layout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("chart: parse dob/time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// BodyPosition is one graha's placement in the chart.
type BodyPosition struct {
	Name                 string
	SiderealLongitudeDeg float64
	Sign                 int
	SignName             string
	Nakshatra            int
	NakshatraName        string
	Pada                 int
	Dignity              Dignity
	Retrograde           bool
}

// Horoscope is the fully assembled chart for one Input.
type Horoscope struct {
	Input        Input
	JulianDay    float64
	AyanamshaDeg float64

	AscendantSign     int
	AscendantSignName string
	AscendantDeg      float64

	Bodies []BodyPosition

	TithiIndex int
	TithiName  string

	Dasha []DashaPeriod
}

// AssembleHoroscope runs the full chart pipeline: resolve the
// birth instant, convert to Julian day, pull every body's vector from
// the ephemeris source, project to sidereal ecliptic longitude, and
// derive sign/nakshatra/tithi/dasha/dignity from those longitudes.
func AssembleHoroscope(src PositionSource, dignity *DignityEngine, in Input) (*Horoscope, error) {
	birth, err := in.UTC()
	if err != nil {
		return nil, err
	}
	jd := astro.JulianDay(birth)
	ayanamsha := astro.LahiriAyanamsha(jd)
	eps := astro.MeanObliquity(jd)

	earthVec, err := src.Position(earthBodyID, jd)
	if err != nil {
		return nil, fmt.Errorf("chart: earth vector: %w", err)
	}

	h := &Horoscope{
		Input:        in,
		JulianDay:    jd,
		AyanamshaDeg: ayanamsha,
	}

	sunGeo := astro.Negate(earthVec)
	sunSidereal := siderealLongitude(sunGeo, eps, ayanamsha)
	h.Bodies = append(h.Bodies, bodyPosition("Sun", sunSidereal, dignity, false))

	moonGeo, err := src.Position(moonBodyID, jd)
	if err != nil {
		return nil, fmt.Errorf("chart: moon vector: %w", err)
	}
	moonSidereal := siderealLongitude(moonGeo, eps, ayanamsha)
	moonRetro, err := isRetrograde(src, moonBodyID, nil, eps, ayanamsha, jd)
	if err != nil {
		return nil, fmt.Errorf("chart: moon retrograde: %w", err)
	}
	h.Bodies = append(h.Bodies, bodyPosition("Moon", moonSidereal, dignity, moonRetro))

	for _, name := range []string{"Mercury", "Venus", "Mars", "Jupiter", "Saturn"} {
		id := bodyIDs[name]
		vec, err := src.Position(id, jd)
		if err != nil {
			return nil, fmt.Errorf("chart: %s vector: %w", name, err)
		}
		flags, err := src.Flags(id)
		if err != nil {
			return nil, fmt.Errorf("chart: %s flags: %w", name, err)
		}
		geo := astro.GeocentricBody(id, vec, earthVec, flags)
		sid := siderealLongitude(geo, eps, ayanamsha)
		retro, err := isRetrograde(src, id, &earthVec, eps, ayanamsha, jd)
		if err != nil {
			return nil, fmt.Errorf("chart: %s retrograde: %w", name, err)
		}
		h.Bodies = append(h.Bodies, bodyPosition(name, sid, dignity, retro))
	}

	rahuTropical := astro.MeanLunarNode(jd)
	rahuSidereal := astro.ToSidereal(rahuTropical, ayanamsha)
	h.Bodies = append(h.Bodies, bodyPosition("Rahu", rahuSidereal, dignity, true))
	ketuSidereal := astro.ToSidereal(rahuTropical+180, ayanamsha)
	h.Bodies = append(h.Bodies, bodyPosition("Ketu", ketuSidereal, dignity, true))

	ascTropical := astro.Ascendant(jd, in.Lat, in.Lng, eps)
	ascSidereal := astro.ToSidereal(ascTropical, ayanamsha)
	h.AscendantDeg = ascSidereal
	h.AscendantSign, h.AscendantSignName = Sign(ascSidereal)

	h.TithiIndex, h.TithiName = Tithi(moonSidereal, sunSidereal)
	h.Dasha = VimshottariDasha(moonSidereal, birth)

	return h, nil
}

func siderealLongitude(vec seph.Vector, epsDeg, ayanamshaDeg float64) float64 {
	tropical := astro.EclipticLongitude(vec, epsDeg)
	return astro.ToSidereal(tropical, ayanamshaDeg)
}

func bodyPosition(name string, siderealDeg float64, dignity *DignityEngine, retrograde bool) BodyPosition {
	signIdx, signName := Sign(siderealDeg)
	nakIdx, nakName, pada := Nakshatra(siderealDeg)
	return BodyPosition{
		Name:                 name,
		SiderealLongitudeDeg: siderealDeg,
		Sign:                 signIdx,
		SignName:             signName,
		Nakshatra:            nakIdx,
		NakshatraName:        nakName,
		Pada:                 pada,
		Dignity:              dignity.Evaluate(name, signIdx),
		Retrograde:           retrograde,
	}
}

// isRetrograde samples the body's sidereal longitude one day earlier
// and compares. The Moon, already geocentric, is passed with a nil
// earthVec so no subtraction happens; the lunar nodes never come
// through here, since they are always marked retrograde.
func isRetrograde(src PositionSource, bodyID int32, earthVec *seph.Vector, eps, ayanamsha, jd float64) (bool, error) {
	vecNow, err := src.Position(bodyID, jd)
	if err != nil {
		return false, err
	}
	vecPrev, err := src.Position(bodyID, jd-1)
	if err != nil {
		return false, err
	}
	flags, err := src.Flags(bodyID)
	if err != nil {
		return false, err
	}

	geoNow, geoPrev := vecNow, vecPrev
	if earthVec != nil && flags.Heliocentric() {
		earthPrev, err := src.Position(earthBodyID, jd-1)
		if err != nil {
			return false, err
		}
		geoNow = astro.Sub(vecNow, *earthVec)
		geoPrev = astro.Sub(vecPrev, earthPrev)
	}

	lonNow := siderealLongitude(geoNow, eps, ayanamsha)
	lonPrev := siderealLongitude(geoPrev, eps, ayanamsha)
	delta := lonNow - lonPrev
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	return delta < 0, nil
}
