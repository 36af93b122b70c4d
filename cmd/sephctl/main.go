package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"example.com/sephchart/internal/chart"
	"example.com/sephchart/internal/common"
	"example.com/sephchart/internal/manifest"
	"example.com/sephchart/internal/report"
	"example.com/sephchart/internal/seph"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	if _, err := common.RequireValidLicense(); err != nil {
		fmt.Fprintf(os.Stderr, "license error: %v\n", err)
		fmt.Fprintf(os.Stderr, "machine hash: %s\n", machineHashForError())
		os.Exit(2)
	}
	switch os.Args[1] {
	case "position":
		positionCmd(os.Args[2:])
	case "chart":
		chartCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	case "batch-position":
		batchPositionCmd(os.Args[2:])
	default:
		usage()
	}
}

func machineHashForError() string {
	hash, err := common.MachineFingerprint()
	if err != nil {
		return fmt.Sprintf("unavailable (%v)", err)
	}
	return hash
}

func usage() {
	fmt.Printf(`sephctl <command> [options]

Commands:
  position        --ephe <file.se1> --body <id> --jd <julianDay>
  chart            --ephe <file.se1>[,...] --dob <YYYY-MM-DD> --time <HH:MM[:SS]> --lat <deg> --lng <deg> [--tz <zone>] [--lang en|hi] --out <horoscope.json> [--pdf <horoscope.pdf>]
  validate         --ephe <file.se1>
  manifest         --inputs <comma-separated> --out <manifest.json> [--sign --key <key.pem>]
  batch-position   --ephe <file.se1> --body <id> --start <jd> --end <jd> --step <days> [--metrics] [--progress]
`)
}

func loadHandles(paths []string) (map[int32]*seph.HandlePool, error) {
	pools := make(map[int32]*seph.HandlePool)
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h, err := seph.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		pool := seph.NewHandlePool(h)
		for _, id := range h.BodyIDs() {
			pools[id] = pool
		}
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("no ephemeris files opened")
	}
	return pools, nil
}

// multiSource dispatches by body id across several opened files, the
// same role server.bodyRouter plays for the daemon.
type multiSource struct {
	pools map[int32]*seph.HandlePool
}

func (m multiSource) Position(body int32, jd float64) (seph.Vector, error) {
	pool, ok := m.pools[body]
	if !ok {
		return seph.Vector{}, fmt.Errorf("no ephemeris file bound to body %d", body)
	}
	return pool.Position(body, jd)
}

func (m multiSource) Flags(body int32) (seph.BodyFlags, error) {
	pool, ok := m.pools[body]
	if !ok {
		return 0, fmt.Errorf("no ephemeris file bound to body %d", body)
	}
	return pool.Flags(body)
}

func positionCmd(args []string) {
	fs := flag.NewFlagSet("position", flag.ExitOnError)
	ephe := fs.String("ephe", "", "ephemeris file")
	body := fs.Int("body", 0, "body id")
	jd := fs.Float64("jd", 0, "julian day")
	fs.Parse(args)

	if *ephe == "" {
		fmt.Println("required: --ephe")
		os.Exit(1)
	}
	h, err := seph.Open(*ephe)
	if err != nil {
		fmt.Println("open:", err)
		os.Exit(1)
	}
	vec, err := h.Position(int32(*body), *jd)
	if err != nil {
		fmt.Println("position:", err)
		os.Exit(1)
	}
	fmt.Printf("x=%.9f y=%.9f z=%.9f\n", vec.X, vec.Y, vec.Z)
}

func chartCmd(args []string) {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	ephe := fs.String("ephe", "", "comma-separated ephemeris files")
	dob := fs.String("dob", "", "date of birth YYYY-MM-DD")
	birthTime := fs.String("time", "", "birth time HH:MM[:SS]")
	lat := fs.Float64("lat", 0, "latitude degrees")
	lng := fs.Float64("lng", 0, "longitude degrees")
	tz := fs.String("tz", "", "IANA timezone")
	lang := fs.String("lang", "en", "report language")
	out := fs.String("out", "horoscope.json", "output json path")
	pdfOut := fs.String("pdf", "", "output pdf path")
	fs.Parse(args)

	if *ephe == "" || *dob == "" || *birthTime == "" {
		fmt.Println("required: --ephe, --dob, --time")
		os.Exit(1)
	}
	pools, err := loadHandles(strings.Split(*ephe, ","))
	if err != nil {
		fmt.Println("load ephemeris:", err)
		os.Exit(1)
	}
	dignity, err := chart.NewDignityEngine()
	if err != nil {
		fmt.Println("dignity rules:", err)
		os.Exit(1)
	}
	language, err := report.ParseLanguage(*lang)
	if err != nil {
		fmt.Println("lang:", err)
		os.Exit(1)
	}

	in := chart.Input{DOB: *dob, Time: *birthTime, Lat: *lat, Lng: *lng, TZ: *tz, Language: string(language)}
	h, err := chart.AssembleHoroscope(multiSource{pools: pools}, dignity, in)
	if err != nil {
		fmt.Println("assemble chart:", err)
		os.Exit(1)
	}
	if err := report.SaveHoroscopeJSON(h, *out); err != nil {
		fmt.Println("write json:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
	if *pdfOut != "" {
		if err := report.SaveHoroscopePDF(h, language, *pdfOut); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *pdfOut)
	}
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	ephe := fs.String("ephe", "", "ephemeris file")
	fs.Parse(args)
	if *ephe == "" {
		fmt.Println("required: --ephe")
		os.Exit(1)
	}
	h, err := seph.Open(*ephe)
	if err != nil {
		fmt.Println("open:", err)
		os.Exit(1)
	}
	start, end := h.Validity()
	fmt.Printf("bodies=%v validity=[%.3f,%.3f] sha256=%s\n", h.BodyIDs(), start, end, h.Digest())
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	sign := fs.Bool("sign", false, "sign manifest with a detached JWS")
	keyPath := fs.String("key", "", "PEM private key for signing")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}
	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}
	if *sign {
		if *keyPath == "" {
			fmt.Println("--sign requires --key")
			os.Exit(1)
		}
		keyBytes, err := os.ReadFile(*keyPath)
		if err != nil {
			fmt.Println("read key:", err)
			os.Exit(1)
		}
		if err := m.Sign(keyBytes); err != nil {
			fmt.Println("sign:", err)
			os.Exit(1)
		}
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Println("manifest save:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
}

// batchPositionCmd samples one body's position across a Julian day
// range at a fixed step, reporting throughput the way a bulk
// validation run would.
func batchPositionCmd(args []string) {
	fs := flag.NewFlagSet("batch-position", flag.ExitOnError)
	ephe := fs.String("ephe", "", "ephemeris file")
	body := fs.Int("body", 0, "body id")
	start := fs.Float64("start", 0, "start julian day")
	end := fs.Float64("end", 0, "end julian day")
	step := fs.Float64("step", 1, "step in days")
	metricsFlag := fs.Bool("metrics", false, "print throughput metrics")
	progressFlag := fs.Bool("progress", false, "display progress updates")
	fs.Parse(args)

	if *ephe == "" || *step <= 0 || *end <= *start {
		fmt.Println("required: --ephe, --start < --end, --step > 0")
		os.Exit(1)
	}
	h, err := seph.Open(*ephe)
	if err != nil {
		fmt.Println("open:", err)
		os.Exit(1)
	}
	info, err := os.Stat(*ephe)
	if err != nil {
		fmt.Println("stat:", err)
		os.Exit(1)
	}

	var metrics *common.Metrics
	if *metricsFlag || *progressFlag {
		metrics = common.NewMetrics()
		metrics.SetTotalBytes(info.Size())
	}
	var stopProgress func()
	if metrics != nil {
		metrics.Start()
		if *progressFlag {
			stopProgress = common.StartProgressPrinter(os.Stderr, metrics, 500*time.Millisecond)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	count := 0
	for jd := *start; jd <= *end; jd += *step {
		vec, err := h.Position(int32(*body), jd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "position:", err)
			continue
		}
		_ = enc.Encode(struct {
			JD float64 `json:"jd"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
			Z  float64 `json:"z"`
		}{jd, vec.X, vec.Y, vec.Z})
		count++
		if metrics != nil {
			metrics.AddSample(24)
		}
	}

	if stopProgress != nil {
		stopProgress()
	}
	if metrics != nil {
		metrics.Stop()
	}
	if metrics != nil && *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Fprintf(os.Stderr, "samples=%d duration=%s throughput=%.2f MB/s\n",
			count, snap.Duration.Round(10*time.Millisecond), snap.ThroughputBytesPerSecond()/1_000_000)
	}
}
