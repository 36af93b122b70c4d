// Package manifest builds a SHA-256 manifest of a report bundle's
// files and, when a signing key is configured, a detached RSA JWS
// signature over it.
package manifest

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"example.com/sephchart/internal/common"
)

type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

type Manifest struct {
	CreatedAt time.Time  `json:"createdAt"`
	ShaAlgo   string     `json:"shaAlgo"`
	Items     []Item     `json:"items"`
	Signature *Signature `json:"signature,omitempty"`
}

type Signature struct {
	JWS JWS `json:"jws"`
}

// Build hashes every path and classifies it by extension.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		digest, sz, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		typ := "other"
		switch {
		case hasExt(p, ".pdf"):
			typ = "pdf"
		case hasExt(p, ".png"):
			typ = "qr"
		case hasExt(p, ".json"):
			typ = "json"
		}
		m.Items = append(m.Items, Item{Path: p, Size: sz, Sha256: digest, Type: typ})
	}
	return m, nil
}

func hasExt(path string, exts ...string) bool {
	for _, e := range exts {
		if strings.HasSuffix(path, e) {
			return true
		}
	}
	return false
}

// Sign signs the manifest's canonical JSON payload and attaches the
// resulting JWS. Call before Save.
func (m *Manifest) Sign(privateKeyPEM []byte) error {
	payload, err := json.Marshal(m.Items)
	if err != nil {
		return err
	}
	jws, err := SignDetachedJWS(payload, privateKeyPEM)
	if err != nil {
		return err
	}
	m.Signature = &Signature{JWS: jws}
	return nil
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
