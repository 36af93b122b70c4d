package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"example.com/sephchart/internal/seph"
	"example.com/sephchart/internal/seph/fixture"
)

// classicalBodyIDs mirrors chart.AssembleHoroscope's fixed Sun/Moon/
// Mercury-through-Saturn lookup (section 3's body-id table).
var classicalBodyIDs = []int32{0, 1, 2, 3, 4, 5, 6}

func fillerCoord() fixture.SegmentCoords {
	var c fixture.SegmentCoords
	c.Codes[0] = []uint32{0}
	return c
}

// buildServerFixture writes a single-segment, ncoe=1 synthetic SE1 file
// covering every classical body id to a temp path, wide enough in time
// to answer any Julian day the handler tests exercise.
func buildServerFixture(t *testing.T) string {
	t.Helper()
	var bodies []fixture.Body
	for i, id := range classicalBodyIDs {
		var x fixture.SegmentCoords
		x.Codes[0] = []uint32{fixture.EncodeLSBSign(uint32(10+i), false)}
		flags := seph.BodyFlags(0)
		if id != 0 && id != 1 {
			flags = seph.FlagHeliocentric
		}
		bodies = append(bodies, fixture.Body{
			ID:      id,
			Flags:   flags,
			Ncoe:    1,
			Rmax:    2.0,
			Tfstart: 2415000,
			Tfend:   2460000,
			Dseg:    45000,
			Telem:   2415000,
			Segments: []fixture.Segment{
				{X: x, Y: fillerCoord(), Z: fillerCoord()},
			},
		})
	}
	f := fixture.File{TfstartFile: 2415000, TfendFile: 2460000, Bodies: bodies}
	data, err := fixture.Build(f)
	if err != nil {
		t.Fatalf("fixture.Build: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "test.se1")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ephePath := buildServerFixture(t)
	storage := filepath.Join(t.TempDir(), "storage")
	srv, err := NewServer(Options{
		StorageDir:     storage,
		EphemerisFiles: []EphemerisFile{{Path: ephePath}},
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestHandleChartSuccess(t *testing.T) {
	srv := newTestServer(t)
	router, err := NewRouter(srv)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(router)
	defer ts.Close()

	reqBody := map[string]any{
		"dob":  "2000-06-15",
		"time": "12:00",
		"lat":  28.6139,
		"lng":  77.2090,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/chart", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /chart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "success" {
		t.Fatalf("status field = %q, want success", out.Status)
	}
	if out.Horoscope == nil {
		t.Fatalf("expected a horoscope in the response")
	}
	if len(out.Artifacts) == 0 {
		t.Fatalf("expected at least json+pdf artifacts")
	}
}

// TestHandleChartAssembleError covers the §4.11 error envelope: a
// birth date outside the bound ephemeris file's validity window makes
// chart.AssembleHoroscope fail with seph.ErrOutOfRange, which must
// surface as a 422 {"status":"error",...} body, not a bare 400.
func TestHandleChartAssembleError(t *testing.T) {
	srv := newTestServer(t)
	router, err := NewRouter(srv)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(router)
	defer ts.Close()

	reqBody := map[string]any{
		"dob":  "1800-01-01",
		"time": "12:00",
		"lat":  28.6139,
		"lng":  77.2090,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/chart", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /chart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var out chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "error" {
		t.Fatalf("status field = %q, want error", out.Status)
	}
	if out.Message == "" {
		t.Fatalf("expected a non-empty error message")
	}
	if out.Horoscope != nil {
		t.Fatalf("no horoscope should be returned on error")
	}
}

func TestHandleValidityKnownBody(t *testing.T) {
	srv := newTestServer(t)
	router, err := NewRouter(srv)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ephemeris/validity?body=1")
	if err != nil {
		t.Fatalf("GET /ephemeris/validity: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Tfstart float64 `json:"tfstart"`
		Tfend   float64 `json:"tfend"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Tfstart != 2415000 || out.Tfend != 2460000 {
		t.Fatalf("validity = [%g,%g], want [2415000,2460000]", out.Tfstart, out.Tfend)
	}
}

func TestHandleValidityUnknownBody(t *testing.T) {
	srv := newTestServer(t)
	router, err := NewRouter(srv)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ephemeris/validity?body=99")
	if err != nil {
		t.Fatalf("GET /ephemeris/validity: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleValidityMissingParam(t *testing.T) {
	srv := newTestServer(t)
	router, err := NewRouter(srv)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ephemeris/validity")
	if err != nil {
		t.Fatalf("GET /ephemeris/validity: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
