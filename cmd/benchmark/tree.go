package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/watchparty/detector"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func quietLogger() detector.Option {
	return detector.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// buildChains forks w chains of h nodes under a fresh root. Every node
// watches src and the leaves count how often they fire.
func buildChains(w, h int, src *int, fired *int, opts ...detector.Option) *detector.Node {
	root := detector.New(append([]detector.Option{quietLogger()}, opts...)...)
	for i := 0; i < w; i++ {
		last := root
		for j := 0; j < h; j++ {
			last = last.Fork()
			offset := j
			var cb func(int, int, bool)
			if j == h-1 {
				cb = func(int, int, bool) { *fired++ }
			}
			last.Watch(detector.Watch(func() int { return *src + offset }, cb))
		}
	}
	return root
}

func benchmarkTree(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))
	async := cmd.Bool(asyncKey)

	return profiled(cmd, func() error {
		log.Printf("warming up")

		tbl := table.NewWriter()
		title := "Tree check"
		if async {
			title += " (async)"
		}
		tbl.SetTitle(title)
		tbl.SetOutputMirror(os.Stdout)
		tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

		var opts []detector.Option
		var mode []detector.CheckOption
		if async {
			opts = append(opts, detector.WithDebounce(time.Microsecond))
			mode = append(mode, detector.Async())
		}

		for _, w := range ww {
			for _, h := range hh {
				src, fired := 0, 0
				root := buildChains(w, h, &src, &fired, opts...)
				root.DetectChanges()

				tach := tachymeter.New(&tachymeter.Config{Size: iters})
				for i := 0; i < iters; i++ {
					src++
					start := time.Now()
					if err := root.DetectChanges(mode...).Wait(ctx); err != nil {
						return err
					}
					tach.AddTime(time.Since(start))
				}
				if want := w * (iters + 1); fired != want {
					return fmt.Errorf("%d * %d: leaves fired %d times, want %d", w, h, fired, want)
				}

				calc := tach.Calc()
				tbl.AppendRows([]table.Row{
					{
						fmt.Sprintf("check: %d * %d", w, h),
						calc.Time.Avg,
						calc.Time.Min,
						calc.Time.P75,
						calc.Time.P99,
						calc.Time.Max,
					},
				})
			}
		}

		tbl.Render()
		return nil
	})
}
