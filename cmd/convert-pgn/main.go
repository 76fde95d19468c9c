package main

import (
	"flag"

	"github.com/expbook/expbook/internal/convert"
	"github.com/expbook/expbook/internal/exp"
	"github.com/expbook/expbook/internal/logx"
)

func main() {
	var (
		input     = flag.String("input", "games.pgn", "input PGN file (.pgn or .pgn.zst)")
		output    = flag.String("output", "book.exp", "output experience file (appended to)")
		minRating = flag.Int("min-rating", 0, "skip games where either side is rated below this")
		depth     = flag.Int("depth", int(exp.MinDepth), "depth recorded on generated entries")
		defrag    = flag.Bool("defrag", true, "defragment the output file afterwards")
	)
	flag.Parse()

	logger := logx.NewLogger()

	cfg := convert.Config{
		MinRating: *minRating,
		Depth:     int32(*depth),
		Logger:    logger,
	}
	stats, err := convert.PGNToExperience(cfg, *input, *output)
	if err != nil {
		logger.Fatal().Err(err).Str("input", *input).Msg("conversion failed")
	}

	if *defrag && stats.Entries > 0 {
		expCfg := exp.Config{Logger: logger, MinDepth: int32(*depth)}
		if err := exp.Defragment(expCfg, *output); err != nil {
			logger.Fatal().Err(err).Str("file", *output).Msg("defragment failed")
		}
	}
}
