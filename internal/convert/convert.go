// Package convert turns PGN game corpora into experience records: every
// played move becomes one PV entry keyed by the position it was played from,
// valued by the game result from the side to move's perspective.
package convert

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"

	"github.com/expbook/expbook/internal/exp"
)

// Result values assigned to generated entries, in centipawns from the side
// to move: a win counts as a solid advantage, a loss as its mirror image.
const (
	winValue  = 200
	drawValue = 0
	lossValue = -200
)

// Config configures a conversion run.
type Config struct {
	MinRating  int   // skip games where either side is rated below this (0 = keep all)
	Depth      int32 // depth recorded on generated entries (default exp.MinDepth)
	FlushEvery int   // append to the output file every N converted games (default 1000)
	Logger     zerolog.Logger
}

// Stats summarizes a conversion run.
type Stats struct {
	Games   int64 // games converted
	Skipped int64 // games filtered out or without a usable result
	Entries int64 // experience entries produced
}

// PGNToExperience replays every game in the PGN file at input and appends one
// PV entry per played move to the experience file at output, creating it if
// needed. Duplicate entries across games are left to a later defragment.
func PGNToExperience(cfg Config, input, output string) (Stats, error) {
	if cfg.Depth == 0 {
		cfg.Depth = exp.MinDepth
	}
	if cfg.FlushEvery == 0 {
		cfg.FlushEvery = 1000
	}

	// Generated entries carry exactly cfg.Depth, so they all pass the
	// persist filter.
	book := exp.NewBook(exp.Config{Logger: cfg.Logger, MinDepth: cfg.Depth})

	var stats Stats
	parser := pgn.Games(input)
	for game := range parser.Games {
		if cfg.MinRating > 0 {
			if parseRating(game.Tags["WhiteElo"]) < cfg.MinRating ||
				parseRating(game.Tags["BlackElo"]) < cfg.MinRating {
				stats.Skipped++
				continue
			}
		}

		n := convertGame(book, game, cfg.Depth)
		if n == 0 {
			stats.Skipped++
			continue
		}
		stats.Games++
		stats.Entries += int64(n)

		if stats.Games%int64(cfg.FlushEvery) == 0 {
			if _, err := book.Save(output, false); err != nil {
				return stats, fmt.Errorf("append to %s: %w", output, err)
			}
		}
	}
	if err := parser.Err(); err != nil {
		return stats, err
	}

	if _, err := book.Save(output, false); err != nil {
		return stats, fmt.Errorf("append to %s: %w", output, err)
	}

	cfg.Logger.Info().
		Str("input", input).
		Str("output", output).
		Int64("games", stats.Games).
		Int64("skipped", stats.Skipped).
		Int64("entries", stats.Entries).
		Msg("conversion complete")

	return stats, nil
}

// convertGame queues one PV entry per played move and returns the number of
// entries produced, or 0 when the game has no usable result.
func convertGame(book *exp.Book, game *pgn.Game, depth int32) int {
	var result int // +1 white won, -1 black won, 0 draw
	switch game.Tags["Result"] {
	case "1-0":
		result = 1
	case "0-1":
		result = -1
	case "1/2-1/2":
		result = 0
	default:
		return 0
	}

	pos := pgn.NewStartingPosition()
	entries := 0

	for ply, mv := range game.Moves {
		key := PositionKey(pos.Pack())

		whiteToMove := ply%2 == 0
		value := int32(drawValue)
		if result != 0 {
			if (result == 1) == whiteToMove {
				value = winValue
			} else {
				value = lossValue
			}
		}

		book.AddPV(key, moveCode(mv), value, depth)
		entries++

		if err := pgn.ApplyMove(pos, mv); err != nil {
			break
		}
	}
	return entries
}

// PositionKey hashes a packed position into the store's 64-bit key space.
func PositionKey(packed pgn.PackedPosition) exp.Key {
	h := fnv.New64a()
	h.Write(packed[:])
	return exp.Key(h.Sum64())
}

// moveCode converts a parsed move to the store's fixed-width move code.
func moveCode(mv pgn.Mv) exp.Move {
	var promo byte
	switch mv.Promo {
	case pgn.PromoQueen:
		promo = exp.PromoQueen
	case pgn.PromoRook:
		promo = exp.PromoRook
	case pgn.PromoBishop:
		promo = exp.PromoBishop
	case pgn.PromoKnight:
		promo = exp.PromoKnight
	}
	return exp.EncodeMove(int(mv.From), int(mv.To), promo)
}

func parseRating(s string) int {
	if s == "" || s == "?" || s == "-" {
		return 0
	}
	r, _ := strconv.Atoi(s)
	return r
}
