package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

type profile struct {
	Name       string
	Signals    int
	Layers     int
	Effects    int
	Iterations int
}

var profiles = map[string]profile{
	"fast": {
		Name:       "fast",
		Signals:    100,
		Layers:     2,
		Effects:    50,
		Iterations: 1_000,
	},
	"standard": {
		Name:       "standard",
		Signals:    1_000,
		Layers:     4,
		Effects:    500,
		Iterations: 10_000,
	},
	"deep": {
		Name:       "deep",
		Signals:    2_000,
		Layers:     16,
		Effects:    1_000,
		Iterations: 10_000,
	},
}

func runCmd() *cobra.Command {
	var (
		signals    int
		layers     int
		effects    int
		iterations int
		jsonOut    string
	)

	cmd := &cobra.Command{
		Use:   "run [profile]",
		Short: "Run a benchmark profile",
		Long: `Run builds a graph of signals, derived layers and effects, then
drives it: each iteration writes one signal and flushes, so one
iteration exercises invalidation, memoization and scheduling
end to end.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "standard"
			if len(args) == 1 {
				name = args[0]
			}
			p, ok := profiles[name]
			if !ok {
				return fmt.Errorf("unknown profile %q", name)
			}

			if signals > 0 {
				p.Signals = signals
			}
			if layers > 0 {
				p.Layers = layers
			}
			if effects > 0 {
				p.Effects = effects
			}
			if iterations > 0 {
				p.Iterations = iterations
			}

			report := runBench(p)
			writeSummary(os.Stderr, report)
			if jsonOut != "" {
				return writeJSON(jsonOut, report)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&signals, "signals", 0, "override number of source signals")
	cmd.Flags().IntVar(&layers, "layers", 0, "override number of derived layers")
	cmd.Flags().IntVar(&effects, "effects", 0, "override number of effects")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "override number of write/flush iterations")
	cmd.Flags().StringVar(&jsonOut, "json", "", "JSON output path ('-' for stdout)")

	return cmd
}

type benchReport struct {
	Run      runInfo            `json:"run"`
	Workload workloadInfo       `json:"workload"`
	FlushUS  latencyInfo        `json:"flush_us"`
	Total    totalInfo          `json:"total"`
	Stats    pulse.RuntimeStats `json:"stats"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile    string `json:"profile"`
	Signals    int    `json:"signals"`
	Layers     int    `json:"layers"`
	Effects    int    `json:"effects"`
	Iterations int    `json:"iterations"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type totalInfo struct {
	DurationMS     float64 `json:"duration_ms"`
	FlushesPerSec  float64 `json:"flushes_per_sec"`
	AllocMB        float64 `json:"alloc_mb"`
	AllocsObjects  uint64  `json:"allocs_objects"`
	LiveHeapMB     float64 `json:"live_heap_mb"`
	GCCyclesDuring uint32  `json:"gc_cycles"`
}

// runBench builds the graph and drives it for the configured number of
// write/flush iterations.
func runBench(p profile) benchReport {
	rt := pulse.NewRuntime(
		pulse.WithErrorSink(func(err error) {
			fmt.Fprintf(os.Stderr, "flush error: %v\n", err)
		}),
	)

	// Source signals.
	sources := make([]*pulse.Signal[int], p.Signals)
	for i := range sources {
		sources[i] = pulse.NewSignal(rt, i)
	}

	// Derived layers: each layer node sums a pair from the layer below,
	// so a single write invalidates one chain up through every layer.
	prev := make([]func() int, len(sources))
	for i, s := range sources {
		s := s
		prev[i] = s.Get
	}
	for layer := 0; layer < p.Layers; layer++ {
		next := make([]func() int, len(prev))
		for i := range prev {
			a := prev[i]
			b := prev[(i+1)%len(prev)]
			d := pulse.NewDerived(rt, func() int { return a() + b() })
			next[i] = d.Get
		}
		prev = next
	}

	// Effects read the top layer; sink prevents the reads from being
	// optimized away.
	var sink int
	_, dispose := pulse.CreateRoot(rt, func() struct{} {
		for i := 0; i < p.Effects; i++ {
			top := prev[i%len(prev)]
			rt.CreateEffect(func() pulse.Cleanup {
				sink += top()
				return nil
			})
		}
		return struct{}{}
	})
	defer dispose()

	// First flush runs every effect once; excluded from samples.
	rt.FlushSync()

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	samples := make([]time.Duration, 0, p.Iterations)
	start := time.Now()
	for i := 0; i < p.Iterations; i++ {
		sources[i%len(sources)].Update(func(v int) int { return v + 1 })
		t0 := time.Now()
		rt.FlushSync()
		samples = append(samples, time.Since(t0))
	}
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	return benchReport{
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:    p.Name,
			Signals:    p.Signals,
			Layers:     p.Layers,
			Effects:    p.Effects,
			Iterations: p.Iterations,
		},
		FlushUS: latencyInfo{
			Min: us(samples[0]),
			P50: us(percentile(samples, 0.50)),
			P95: us(percentile(samples, 0.95)),
			P99: us(percentile(samples, 0.99)),
			Max: us(samples[len(samples)-1]),
		},
		Total: totalInfo{
			DurationMS:     float64(elapsed) / float64(time.Millisecond),
			FlushesPerSec:  float64(p.Iterations) / math.Max(0.001, elapsed.Seconds()),
			AllocMB:        float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			AllocsObjects:  after.Mallocs - before.Mallocs,
			LiveHeapMB:     float64(after.HeapAlloc) / (1024 * 1024),
			GCCyclesDuring: after.NumGC - before.NumGC,
		},
		Stats: rt.Stats(),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== Pulse Runtime Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Graph: %d signals, %d layers, %d effects\n",
		report.Workload.Signals, report.Workload.Layers, report.Workload.Effects)
	fmt.Fprintf(w, "Iterations: %d\n", report.Workload.Iterations)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total: %.1f ms (%.0f flushes/s)\n", report.Total.DurationMS, report.Total.FlushesPerSec)
	fmt.Fprintln(w, "Flush latency (write -> effects settled):")
	fmt.Fprintf(w, "  min: %.1f us\n", report.FlushUS.Min)
	fmt.Fprintf(w, "  p50: %.1f us\n", report.FlushUS.P50)
	fmt.Fprintf(w, "  p95: %.1f us\n", report.FlushUS.P95)
	fmt.Fprintf(w, "  p99: %.1f us\n", report.FlushUS.P99)
	fmt.Fprintf(w, "  max: %.1f us\n", report.FlushUS.Max)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Runtime counters:")
	fmt.Fprintf(w, "  flushes:          %d\n", report.Stats.Flushes)
	fmt.Fprintf(w, "  flush iterations: %d\n", report.Stats.FlushIterations)
	fmt.Fprintf(w, "  effect runs:      %d\n", report.Stats.EffectRuns)
	fmt.Fprintf(w, "  effect skips:     %d\n", report.Stats.EffectSkips)
	fmt.Fprintf(w, "  effect failures:  %d\n", report.Stats.EffectFailures)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:     %.2f MB (%d objects)\n", report.Total.AllocMB, report.Total.AllocsObjects)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.Total.LiveHeapMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.Total.GCCyclesDuring)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
