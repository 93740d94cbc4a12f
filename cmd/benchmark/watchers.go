package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/delaneyj/watchparty/detector"
	"github.com/delaneyj/watchparty/telemetry"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

type watchersTestConfig struct {
	name           string  // friendly name, should be unique
	nodes          int     // children of the root
	watchers       int     // watchers per node
	changeFraction float64 // fraction of bound values written before each check
	useEquals      bool    // compare structurally instead of by identity
	iterations     int64
}

func benchmarkWatchers(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting watcher benchmark, please wait...")
	defer log.Print("Finished watcher benchmark")

	cfgs := []watchersTestConfig{
		{name: "small view", nodes: 10, watchers: 5, changeFraction: 0.2, iterations: 100_000},
		{name: "wide list", nodes: 1000, watchers: 3, changeFraction: 0.01, iterations: 2_000},
		{name: "dense bindings", nodes: 50, watchers: 100, changeFraction: 0.1, iterations: 2_000},
		{name: "everything changes", nodes: 100, watchers: 10, changeFraction: 1, iterations: 1_000},
		{name: "structural inputs", nodes: 100, watchers: 10, changeFraction: 0.1, useEquals: true, iterations: 1_000},
	}

	return profiled(cmd, func() error {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{
			"test", "nodes", "watchers", "change%", "nTimes",
			"time", "fires", "checkRate",
		})

		for _, cfg := range cfgs {
			log.Printf("Running '%s' config", cfg.name)
			duration, fires, err := runWatchers(cfg)
			if err != nil {
				return err
			}

			checkRate := float64(cfg.iterations) / (float64(duration) / float64(time.Millisecond))
			table.Append([]string{
				cfg.name,
				humanize.Comma(int64(cfg.nodes)),
				humanize.Comma(int64(cfg.nodes * cfg.watchers)),
				fmt.Sprintf("%0.1f", 100*cfg.changeFraction),
				humanize.Comma(cfg.iterations),
				fmt.Sprint(duration),
				humanize.Comma(fires),
				humanize.Comma(int64(checkRate)) + "/ms",
			})
		}
		table.Render()
		return nil
	})
}

// runWatchers binds one value per watcher, then repeatedly writes a random
// subset of them and checks the tree. The callback count is cross-checked
// against the instrument's watcher_fires_total.
func runWatchers(cfg watchersTestConfig) (time.Duration, int64, error) {
	registry := prometheus.NewRegistry()
	metrics := telemetry.Prometheus(telemetry.WithRegistry(registry))
	root := detector.New(quietLogger(), detector.WithInstrument(metrics))

	values := make([][]int, cfg.nodes*cfg.watchers)
	var fires int64
	var watchOpts []detector.WatchOption
	if cfg.useEquals {
		watchOpts = append(watchOpts, detector.UseEquals())
	}
	for i := 0; i < cfg.nodes; i++ {
		n := root.Fork()
		for j := 0; j < cfg.watchers; j++ {
			slot := i*cfg.watchers + j
			values[slot] = []int{slot}
			n.Watch(detector.Watch(func() []int { return values[slot] }, func([]int, []int, bool) {
				fires++
			}, watchOpts...))
		}
	}
	root.DetectChanges()
	fires = 0

	random := rand.New(rand.NewSource(0))
	writes := int(float64(len(values)) * cfg.changeFraction)
	var expected int64

	start := time.Now()
	for i := int64(0); i < cfg.iterations; i++ {
		touched := map[int]struct{}{}
		for k := 0; k < writes; k++ {
			slot := random.Intn(len(values))
			values[slot] = []int{slot + int(i) + 1}
			touched[slot] = struct{}{}
		}
		expected += int64(len(touched))
		root.DetectChanges()
	}
	duration := time.Since(start)

	if fires != expected {
		return 0, 0, fmt.Errorf("%s: %d fires, want %d", cfg.name, fires, expected)
	}
	recorded, err := counterTotal(registry, "watchparty_watcher_fires_total")
	if err != nil {
		return 0, 0, err
	}
	if want := float64(fires + int64(len(values))); recorded != want {
		return 0, 0, fmt.Errorf("%s: instrument saw %v fires, want %v", cfg.name, recorded, want)
	}
	return duration, fires, nil
}

func counterTotal(g prometheus.Gatherer, name string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total, nil
}
