package main

import (
	"context"
	"log"
	"os"
	"runtime/pprof"

	"github.com/urfave/cli/v3"
)

const (
	profileKey = "cpuprofile"
	itersKey   = "iters"
	asyncKey   = "async"
	widthKey   = "width"
	depthKey   = "depth"
	itemsKey   = "items"
)

var profileFlag = &cli.StringFlag{
	Name:  profileKey,
	Usage: "Write a CPU profile to this file",
	Value: "default.pgo",
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark change detection trees",
		Commands: []*cli.Command{
			{
				Name:  "tree",
				Usage: "Time full traversals of width x depth trees after one source changes",
				Flags: []cli.Flag{
					profileFlag,
					&cli.UintFlag{
						Name:  itersKey,
						Usage: "Traversals timed per tree shape",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  asyncKey,
						Usage: "Schedule debounced traversals and wait for them",
					},
				},
				Action: benchmarkTree,
			},
			{
				Name:   "watchers",
				Usage:  "Measure watcher throughput on flat trees with many bindings",
				Flags:  []cli.Flag{profileFlag},
				Action: benchmarkWatchers,
			},
			{
				Name:  "dump",
				Usage: "Print the detector tree of a sample view",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  widthKey,
						Usage: "Children per node",
						Value: 2,
					},
					&cli.UintFlag{
						Name:  depthKey,
						Usage: "Levels below the root",
						Value: 2,
					},
					&cli.UintFlag{
						Name:  itemsKey,
						Usage: "Items in the sample list",
						Value: 3,
					},
				},
				Action: dump,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func profiled(cmd *cli.Command, fn func() error) error {
	path := cmd.String(profileKey)
	if path == "" {
		return fn()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return err
	}
	defer pprof.StopCPUProfile()
	return fn()
}
