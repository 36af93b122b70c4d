package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"example.com/sephchart/internal/chart"
	"example.com/sephchart/internal/common"
	"example.com/sephchart/internal/report"
	"example.com/sephchart/internal/seph"
)

// Server coordinates HTTP handlers over a set of opened ephemeris
// files and manages temporary artifacts produced by chart requests.
type Server struct {
	workDir     string
	artifacts   *ArtifactStore
	bodies      *bodyRouter
	dignity     *chart.DignityEngine
	requestLog  *common.RequestLog
	signingKey  []byte
	defaultLang report.Language
	concurrency int
	sem         chan struct{}
}

// Artifact represents a file generated by the daemon and kept around
// for later download.
type Artifact struct {
	ID          string
	Path        string
	Name        string
	ContentType string
	Size        int64
	Kind        string
}

// ArtifactRef is the public representation returned in API responses.
type ArtifactRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// ArtifactStore keeps track of generated artifacts for later download.
type ArtifactStore struct {
	mu      sync.RWMutex
	entries map[string]Artifact
}

// bodyRouter dispatches Position/Flags calls to whichever opened file
// was bound to a given body id, so chart.AssembleHoroscope can treat
// several ephemeris files as one source.
type bodyRouter struct {
	pools map[int32]*seph.HandlePool
}

func (b *bodyRouter) Position(body int32, jd float64) (seph.Vector, error) {
	pool, ok := b.pools[body]
	if !ok {
		return seph.Vector{}, fmt.Errorf("server: no ephemeris file bound to body %d", body)
	}
	return pool.Position(body, jd)
}

func (b *bodyRouter) Flags(body int32) (seph.BodyFlags, error) {
	pool, ok := b.pools[body]
	if !ok {
		return 0, fmt.Errorf("server: no ephemeris file bound to body %d", body)
	}
	return pool.Flags(body)
}

// validityFor returns the file-wide validity window of whichever
// ephemeris file is bound to body, the §4.11 thin wrapper over
// seph.Validity for a single body id. It is the file's window, not the
// body's own [tfstart, tfend] from its header record.
func (b *bodyRouter) validityFor(body int32) (start, end float64, err error) {
	pool, ok := b.pools[body]
	if !ok {
		return 0, 0, fmt.Errorf("server: no ephemeris file bound to body %d", body)
	}
	start, end = pool.Validity()
	return start, end, nil
}

// NewServer opens every configured ephemeris file, builds the body
// router and dignity engine, and prepares a temporary workspace for
// generated report bundles.
func NewServer(opts Options) (*Server, error) {
	if len(opts.EphemerisFiles) == 0 {
		return nil, errors.New("server: at least one ephemeris file is required")
	}
	storageDir, err := resolveStorageDir(opts.StorageDir)
	if err != nil {
		storageDir = os.TempDir()
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, err
	}
	workDir, err := os.MkdirTemp(storageDir, "sephd-")
	if err != nil {
		return nil, err
	}

	pools := make(map[int32]*seph.HandlePool)
	for _, ef := range opts.EphemerisFiles {
		h, err := seph.Open(ef.Path)
		if err != nil {
			os.RemoveAll(workDir)
			return nil, fmt.Errorf("server: open %s: %w", ef.Path, err)
		}
		pool := seph.NewHandlePool(h)
		bind := ef.Bind
		if len(bind) == 0 {
			bind = h.BodyIDs()
		}
		for _, id := range bind {
			if _, exists := pools[id]; exists {
				common.Logf("server: body %d bound by %s overrides an earlier ephemeris file", id, ef.Path)
			}
			pools[id] = pool
		}
	}

	dignity, err := chart.NewDignityEngine()
	if err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("server: dignity rules: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	var signingKey []byte
	if opts.ManifestSigning.PrivateKeyPath != "" {
		signingKey, err = os.ReadFile(opts.ManifestSigning.PrivateKeyPath)
		if err != nil {
			os.RemoveAll(workDir)
			return nil, fmt.Errorf("server: read signing key: %w", err)
		}
	}

	s := &Server{
		workDir:     workDir,
		artifacts:   &ArtifactStore{entries: make(map[string]Artifact)},
		bodies:      &bodyRouter{pools: pools},
		dignity:     dignity,
		requestLog:  common.NewRequestLog(filepath.Join(workDir, "requests.ndjson")),
		signingKey:  signingKey,
		defaultLang: opts.defaultLanguage(),
		concurrency: concurrency,
		sem:         make(chan struct{}, concurrency),
	}
	return s, nil
}

// acquire bounds the number of chart requests rendering a PDF/QR/
// manifest bundle at once to s.concurrency, the same role
// engine.SetConcurrency plays for the teacher's rule evaluator.
func (s *Server) acquire() func() {
	s.sem <- struct{}{}
	return func() { <-s.sem }
}

// Close removes any temporary state associated with the server.
func (s *Server) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	return os.RemoveAll(s.workDir)
}

func (s *Server) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(s.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func (s *Server) addArtifact(path, displayName, contentType, kind string) (Artifact, error) {
	if path == "" {
		return Artifact{}, errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	id := randomID()
	art := Artifact{
		ID:          id,
		Path:        path,
		Name:        displayName,
		ContentType: contentType,
		Size:        info.Size(),
		Kind:        kind,
	}
	if art.Name == "" {
		art.Name = filepath.Base(path)
	}
	s.artifacts.mu.Lock()
	s.artifacts.entries[id] = art
	s.artifacts.mu.Unlock()
	return art, nil
}

func (s *Server) getArtifact(id string) (Artifact, bool) {
	s.artifacts.mu.RLock()
	art, ok := s.artifacts.entries[id]
	s.artifacts.mu.RUnlock()
	return art, ok
}

func toRef(art Artifact) ArtifactRef {
	return ArtifactRef{
		ID:          art.ID,
		Name:        art.Name,
		ContentType: art.ContentType,
		Size:        art.Size,
		Kind:        art.Kind,
	}
}

// randomID mints an artifact/request id. 12 random bytes is plenty of
// keyspace for one daemon's in-memory artifact table, which never
// holds more than a handful of chart bundles per request and is
// dropped on process exit.
func randomID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		now := time.Now().UTC()
		return fmt.Sprintf("%d%06d", now.UnixNano(), os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

func (s *Server) listArtifacts() []ArtifactRef {
	s.artifacts.mu.RLock()
	refs := make([]ArtifactRef, 0, len(s.artifacts.entries))
	for _, art := range s.artifacts.entries {
		refs = append(refs, toRef(art))
	}
	s.artifacts.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}
