package manifest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func generateTestKeys(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubBytes,
	})
	return privPEM, pubPEM
}

// TestBuildSignSaveLoadRoundTrip exercises the full manifest lifecycle
// a chart request drives: hash the rendered bundle, sign it, persist
// it to disk, reload it, and verify the detached JWS still checks out
// against the corresponding public key.
func TestBuildSignSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "horoscope.json")
	pdfPath := filepath.Join(dir, "horoscope.pdf")
	if err := os.WriteFile(jsonPath, []byte(`{"ok":true}`), 0o644); err != nil {
		t.Fatalf("write json fixture: %v", err)
	}
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fixture"), 0o644); err != nil {
		t.Fatalf("write pdf fixture: %v", err)
	}

	m, err := Build([]string{jsonPath, pdfPath})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(m.Items))
	}
	if m.Items[0].Type != "json" || m.Items[1].Type != "pdf" {
		t.Fatalf("item types = %q, %q, want json, pdf", m.Items[0].Type, m.Items[1].Type)
	}

	privPEM, pubPEM := generateTestKeys(t)
	if err := m.Sign(privPEM); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if m.Signature == nil {
		t.Fatalf("expected a signature after Sign")
	}

	manifestPath := filepath.Join(dir, "manifest.json")
	if err := Save(m, manifestPath); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(manifestPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Signature == nil {
		t.Fatalf("reloaded manifest lost its signature")
	}
	if len(reloaded.Items) != len(m.Items) {
		t.Fatalf("reloaded Items len = %d, want %d", len(reloaded.Items), len(m.Items))
	}

	if err := VerifyDetachedJWS(reloaded.Signature.JWS, pubPEM); err != nil {
		t.Fatalf("VerifyDetachedJWS: %v", err)
	}
}

// TestVerifyDetachedJWSRejectsTamperedPayload confirms a JWS whose
// payload is altered after signing fails verification rather than
// silently passing.
func TestVerifyDetachedJWSRejectsTamperedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	m, err := Build([]string{path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	privPEM, pubPEM := generateTestKeys(t)
	if err := m.Sign(privPEM); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tampered := m.Signature.JWS
	tampered.Payload = tampered.Payload + "AA"
	if err := VerifyDetachedJWS(tampered, pubPEM); err == nil {
		t.Fatalf("expected verification to fail for a tampered payload")
	}
}
