package main

import (
	"flag"

	"github.com/expbook/expbook/internal/exp"
	"github.com/expbook/expbook/internal/logx"
)

func main() {
	var (
		file     = flag.String("file", "book.exp", "experience file to defragment")
		minDepth = flag.Int("min-depth", int(exp.MinDepth), "minimum depth required to keep an entry")
	)
	flag.Parse()

	logger := logx.NewLogger()

	cfg := exp.Config{Logger: logger, MinDepth: int32(*minDepth)}
	if err := exp.Defragment(cfg, *file); err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("defragment failed")
	}
}
