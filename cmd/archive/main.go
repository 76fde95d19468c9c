package main

import (
	"flag"

	"github.com/expbook/expbook/internal/exp"
	"github.com/expbook/expbook/internal/logx"
)

func main() {
	var (
		input   = flag.String("input", "book.exp", "file to process")
		output  = flag.String("output", "", "output file (default input + .zst, or input without .zst when extracting)")
		extract = flag.Bool("extract", false, "decompress an archived file instead of compressing")
	)
	flag.Parse()

	logger := logx.NewLogger()

	var err error
	if *extract {
		err = exp.Extract(*input, *output)
	} else {
		err = exp.Archive(*input, *output)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("input", *input).Msg("archive operation failed")
	}

	logger.Info().Str("input", *input).Bool("extract", *extract).Msg("done")
}
