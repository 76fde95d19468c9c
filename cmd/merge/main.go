package main

import (
	"flag"

	"github.com/expbook/expbook/internal/exp"
	"github.com/expbook/expbook/internal/logx"
)

func main() {
	var (
		target   = flag.String("target", "", "target experience file (receives the merged data)")
		minDepth = flag.Int("min-depth", int(exp.MinDepth), "minimum depth required to keep an entry")
	)
	flag.Parse()

	logger := logx.NewLogger()

	sources := flag.Args()
	if *target == "" || len(sources) == 0 {
		logger.Fatal().Msg("usage: merge -target <file> <source> [source...]")
	}

	cfg := exp.Config{Logger: logger, MinDepth: int32(*minDepth)}
	if err := exp.MergeFiles(cfg, *target, sources...); err != nil {
		logger.Fatal().Err(err).Str("target", *target).Msg("merge failed")
	}
}
