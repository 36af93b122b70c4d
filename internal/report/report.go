// Package report renders an assembled birth chart to a shareable
// bundle: a localized PDF document, the horoscope as JSON, and QR
// codes for a share link or a bundle file's SHA-256 digest.
package report

import (
	"encoding/json"
	"os"

	"example.com/sephchart/internal/chart"
)

// Bundle is everything produced for one horoscope request.
type Bundle struct {
	PDF    []byte
	QR     []byte
	Locale Language
}

func SaveHoroscopeJSON(h *chart.Horoscope, out string) error {
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadHoroscopeJSON(path string) (*chart.Horoscope, error) {
	var h chart.Horoscope
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
