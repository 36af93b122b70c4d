package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"example.com/sephchart/internal/chart"
	"example.com/sephchart/internal/common"
	"example.com/sephchart/internal/manifest"
	"example.com/sephchart/internal/report"
)

// chartResponse is the §4.11 RPC envelope for POST /chart: a tagged
// {"status":"success","horoscope":...} or {"status":"error","message":...},
// matching get_birth_chart_detail.py's stdin/stdout contract.
type chartResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
	Horoscope *chart.Horoscope `json:"horoscope,omitempty"`
	Artifacts []ArtifactRef    `json:"artifacts,omitempty"`
}

func writeChartError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, chartResponse{Status: "error", Message: message})
}

// handleChart assembles a birth chart from the posted input, renders a
// JSON/PDF/QR bundle into the daemon's temporary workspace, and
// returns artifact references alongside the structured horoscope.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		DOB      string  `json:"dob"`
		Time     string  `json:"time"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
		TZ       string  `json:"tz"`
		Language string  `json:"language"`
		ShareURL string  `json:"shareUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.DOB) == "" || strings.TrimSpace(req.Time) == "" {
		http.Error(w, "dob and time are required", http.StatusBadRequest)
		return
	}

	lang := s.defaultLang
	if strings.TrimSpace(req.Language) != "" {
		parsed, err := report.ParseLanguage(req.Language)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lang = parsed
	}

	release := s.acquire()
	defer release()

	in := chart.Input{
		DOB: req.DOB, Time: req.Time, Lat: req.Lat, Lng: req.Lng,
		TZ: req.TZ, Language: string(lang),
	}
	h, err := chart.AssembleHoroscope(s.bodies, s.dignity, in)
	requestID := randomID()
	entry := common.RequestEntry{RequestID: requestID, InputDigest: digestInput(in)}
	if err != nil {
		entry.Status = "error"
		entry.Detail = err.Error()
		_ = s.requestLog.Append(entry)
		common.Logf("request %s: assemble chart failed: %v", requestID, err)
		writeChartError(w, err.Error())
		return
	}

	jsonPath, err := s.tempPath("horoscope-*.json")
	if err != nil {
		http.Error(w, fmt.Sprintf("temp file: %v", err), http.StatusInternalServerError)
		return
	}
	if err := report.SaveHoroscopeJSON(h, jsonPath); err != nil {
		http.Error(w, fmt.Sprintf("write horoscope json: %v", err), http.StatusInternalServerError)
		return
	}
	pdfPath, err := s.tempPath("horoscope-*.pdf")
	if err != nil {
		http.Error(w, fmt.Sprintf("temp file: %v", err), http.StatusInternalServerError)
		return
	}
	if err := report.SaveHoroscopePDF(h, lang, pdfPath); err != nil {
		http.Error(w, fmt.Sprintf("write horoscope pdf: %v", err), http.StatusInternalServerError)
		return
	}

	jsonArt, err := s.addArtifact(jsonPath, "horoscope.json", "application/json", "horoscope")
	if err != nil {
		http.Error(w, fmt.Sprintf("register horoscope json: %v", err), http.StatusInternalServerError)
		return
	}
	pdfArt, err := s.addArtifact(pdfPath, "horoscope.pdf", "application/pdf", "horoscope")
	if err != nil {
		http.Error(w, fmt.Sprintf("register horoscope pdf: %v", err), http.StatusInternalServerError)
		return
	}
	artifacts := []ArtifactRef{toRef(jsonArt), toRef(pdfArt)}

	if strings.TrimSpace(req.ShareURL) != "" {
		png, err := report.ShareURLToQR(req.ShareURL, 256)
		if err != nil {
			http.Error(w, fmt.Sprintf("share qr: %v", err), http.StatusBadRequest)
			return
		}
		qrPath, err := s.tempPath("horoscope-qr-*.png")
		if err != nil {
			http.Error(w, fmt.Sprintf("temp file: %v", err), http.StatusInternalServerError)
			return
		}
		if err := os.WriteFile(qrPath, png, 0o644); err != nil {
			http.Error(w, fmt.Sprintf("write qr: %v", err), http.StatusInternalServerError)
			return
		}
		qrArt, err := s.addArtifact(qrPath, "horoscope_share.png", "image/png", "qr")
		if err != nil {
			http.Error(w, fmt.Sprintf("register qr: %v", err), http.StatusInternalServerError)
			return
		}
		artifacts = append(artifacts, toRef(qrArt))
	}

	if s.signingKey != nil {
		m, err := manifest.Build([]string{jsonPath, pdfPath})
		if err != nil {
			http.Error(w, fmt.Sprintf("build manifest: %v", err), http.StatusInternalServerError)
			return
		}
		if err := m.Sign(s.signingKey); err != nil {
			http.Error(w, fmt.Sprintf("sign manifest: %v", err), http.StatusInternalServerError)
			return
		}
		manifestPath, err := s.tempPath("manifest-*.json")
		if err != nil {
			http.Error(w, fmt.Sprintf("temp file: %v", err), http.StatusInternalServerError)
			return
		}
		if err := manifest.Save(m, manifestPath); err != nil {
			http.Error(w, fmt.Sprintf("write manifest: %v", err), http.StatusInternalServerError)
			return
		}
		manifestArt, err := s.addArtifact(manifestPath, "manifest.json", "application/json", "manifest")
		if err != nil {
			http.Error(w, fmt.Sprintf("register manifest: %v", err), http.StatusInternalServerError)
			return
		}
		qrPNG, err := report.ManifestHashToQR(m.Items[0].Sha256, 256)
		if err != nil {
			common.Logf("request %s: manifest qr render failed: %v", requestID, err)
		} else {
			qrPath, err := s.tempPath("manifest-qr-*.png")
			if err != nil {
				common.Logf("request %s: manifest qr temp file failed: %v", requestID, err)
			} else if werr := os.WriteFile(qrPath, qrPNG, 0o644); werr != nil {
				common.Logf("request %s: manifest qr write failed: %v", requestID, werr)
			} else if art, aerr := s.addArtifact(qrPath, "manifest_qr.png", "image/png", "qr"); aerr != nil {
				common.Logf("request %s: manifest qr artifact registration failed: %v", requestID, aerr)
			} else {
				artifacts = append(artifacts, toRef(art))
			}
		}
		artifacts = append(artifacts, toRef(manifestArt))
	}

	entry.Status = "ok"
	_ = s.requestLog.Append(entry)

	writeJSON(w, http.StatusOK, chartResponse{
		Status:    "success",
		RequestID: requestID,
		Horoscope: h,
		Artifacts: artifacts,
	})
}

// handleValidity reports, for a single body id, the validity window of
// the ephemeris file bound to that body, a thin wrapper over
// seph.Validity/Flags (section §4.11). Callers query one body id at a
// time rather than a cross-file intersection.
func (s *Server) handleValidity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bodyParam := r.URL.Query().Get("body")
	if bodyParam == "" {
		http.Error(w, "required query parameter: body", http.StatusBadRequest)
		return
	}
	body, err := strconv.ParseInt(bodyParam, 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid body id %q: %v", bodyParam, err), http.StatusBadRequest)
		return
	}
	if _, err := s.bodies.Flags(int32(body)); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	start, end, err := s.bodies.validityFor(int32(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Tfstart float64 `json:"tfstart"`
		Tfend   float64 `json:"tfend"`
	}{start, end})
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(art.Name)))
	io.Copy(w, f)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func digestInput(in chart.Input) string {
	return fmt.Sprintf("%s %s @%.4f,%.4f %s", in.DOB, in.Time, in.Lat, in.Lng, in.TZ)
}
