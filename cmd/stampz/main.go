// Command stampz runs the clustering and ΔE pipeline from the command
// line, standing in for the graphical shell.
//
//	stampz cluster -file plot.xlsx -start 2 -end 100 -k 3 -save
//	stampz delta   -file plot.xlsx -start 2 -end 100 -save
//	stampz delta   -file plot.xlsx -start 2 -end 100 -ref 12 -save
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	stampz "github.com/Stainlessbrown/StampZ-II-sub001"
	"github.com/Stainlessbrown/StampZ-II-sub001/diff"
	"github.com/Stainlessbrown/StampZ-II-sub001/internal/config"
	"github.com/Stainlessbrown/StampZ-II-sub001/rowmap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "cluster":
		err = runCluster(os.Args[2:])
	case "delta":
		err = runDelta(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "stampz:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  stampz cluster -file <workbook.xlsx> -start N -end N [-k N] [-save]
  stampz delta   -file <workbook.xlsx> -start N -end N [-ref ROW] [-save]

defaults are read from ~/.stampz.yaml when present`)
}

type commonFlags struct {
	file       string
	start, end int
	save       bool
	cfg        config.Config
}

func parseCommon(fs *flag.FlagSet, args []string) (*commonFlags, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}

	c := &commonFlags{cfg: cfg}
	fs.StringVar(&c.file, "file", cfg.File, "workbook path")
	fs.IntVar(&c.start, "start", rowmap.FirstDataRow, "first row of the range (1-based)")
	fs.IntVar(&c.end, "end", 0, "last row of the range (1-based)")
	fs.BoolVar(&c.save, "save", false, "persist results to the workbook")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" {
		return nil, fmt.Errorf("-file is required")
	}
	if c.end == 0 {
		c.end = 1 << 20 // clamped to the last data row by the mapper
	}
	return c, nil
}

func newPipeline(cfg config.Config) *stampz.Pipeline {
	level := slog.LevelWarn
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := stampz.NewTextLogger(level)
	if cfg.LogFormat == "json" {
		logger = stampz.NewJSONLogger(level)
	}

	return stampz.New(
		stampz.WithLogger(logger),
		stampz.WithSeed(cfg.Seed),
		stampz.WithLockRetry(cfg.LockRetries, time.Duration(cfg.LockRetryDelayMS)*time.Millisecond),
	)
}

func runCluster(args []string) error {
	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	var k int
	fs.IntVar(&k, "k", 0, "cluster count (minimum 2)")
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}
	if k == 0 {
		k = c.cfg.K
	}

	p := newPipeline(c.cfg)
	if err := p.Load(c.file); err != nil {
		return err
	}

	asg, err := p.Cluster(rowmap.Range{Start: c.start, End: c.end}, k)
	if err != nil {
		return err
	}

	counts := map[int]int{}
	for _, a := range asg {
		counts[a.ClusterID]++
	}
	fmt.Printf("clustered %d samples into %d groups\n", len(asg), len(counts))
	for id := 0; id < len(counts); id++ {
		fmt.Printf("  cluster %d: %d samples\n", id, counts[id])
	}

	if c.save {
		if err := p.SaveClusters(); err != nil {
			return err
		}
		fmt.Println("saved cluster ids and centroids")
	}
	return nil
}

func runDelta(args []string) error {
	fs := flag.NewFlagSet("delta", flag.ContinueOnError)
	var ref int
	fs.IntVar(&ref, "ref", 0, "reference row; 0 compares against cluster centroids")
	c, err := parseCommon(fs, args)
	if err != nil {
		return err
	}

	p := newPipeline(c.cfg)
	if err := p.Load(c.file); err != nil {
		return err
	}

	rng := rowmap.Range{Start: c.start, End: c.end}
	var vals []diff.Value
	if ref > 0 {
		vals, err = p.DiffAgainstReference(rng, ref)
	} else {
		vals, err = p.DiffAgainstCentroids(rng)
	}
	if err != nil {
		return err
	}
	fmt.Printf("computed ΔE2000 for %d rows\n", len(vals))

	if c.save {
		if err := p.SaveDeltas(); err != nil {
			return err
		}
		fmt.Println("saved ΔE column")
	}
	return nil
}
