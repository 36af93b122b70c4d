package server

import (
	"errors"
	"path/filepath"
	"strings"

	"example.com/sephchart/internal/report"
)

// EphemerisFile names one opened SE1 file and the body ids it is
// expected to serve; a real deployment points several of these at
// different files (e.g. planets vs. asteroid extensions).
type EphemerisFile struct {
	Path string
	Bind []int32
}

// ManifestSigningOptions configures detached JWS manifest signing for
// rendered report bundles. An empty PrivateKeyPath disables signing.
type ManifestSigningOptions struct {
	PrivateKeyPath string
}

// Options configures server creation.
type Options struct {
	StorageDir      string
	EphemerisFiles  []EphemerisFile
	ManifestSigning ManifestSigningOptions
	DefaultLanguage report.Language
	Concurrency     int
}

func (o Options) defaultLanguage() report.Language {
	if o.DefaultLanguage == "" {
		return report.LangEnglish
	}
	return o.DefaultLanguage
}

func resolveStorageDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("storage dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return abs, nil
}
