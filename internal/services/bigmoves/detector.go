package bigmoves

import (
	"fmt"
	"sort"

	"FXRisk/internal/domain/models"

	"github.com/markcheno/go-talib"
)

// MaxMoves caps the number of windows a single detection may return.
const MaxMoves = 20

// Config is the per-call input of a detection.
type Config struct {
	WindowSize int
	NumMoves   int
	Direction  models.Direction
	Warmup     models.WarmupPolicy
	Highlight  models.HighlightPolicy
}

func (c Config) normalized() (Config, error) {
	if c.WindowSize <= 0 {
		return c, fmt.Errorf("%w: %d", models.ErrUnsupportedWindowSize, c.WindowSize)
	}
	if c.NumMoves <= 0 {
		return c, fmt.Errorf("%w: num_moves must be positive, got %d", models.ErrInvalidRequest, c.NumMoves)
	}
	if c.NumMoves > MaxMoves {
		c.NumMoves = MaxMoves
	}
	switch c.Direction {
	case models.Largest, models.Smallest:
	case "":
		c.Direction = models.Largest
	default:
		return c, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidRequest, c.Direction)
	}
	if c.Warmup == "" {
		c.Warmup = models.WarmupExclude
	}
	if c.Highlight == "" {
		c.Highlight = models.HighlightWindow
	}
	return c, nil
}

// RollingReturn computes the trailing percentage return over window
// observations ending at each index. Indices without a full window emit 0.
func RollingReturn(prices []float64, window int) []float64 {
	if window < 2 || len(prices) < window {
		return make([]float64, len(prices))
	}
	return talib.Roc(prices, window-1)
}

// SelectTopMoves greedily accepts the best windows that share no date with an
// already accepted window. Candidates are visited in stable sort order of
// returns, so ties keep series order.
func SelectTopMoves(series models.PriceSeries, returns []float64, cfg Config) ([]models.Move, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	w := cfg.WindowSize

	candidates := make([]int, 0, len(returns))
	for i := range returns {
		if i < w-1 && cfg.Warmup == models.WarmupExclude {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if cfg.Direction == models.Smallest {
			return returns[candidates[a]] < returns[candidates[b]]
		}
		return returns[candidates[a]] > returns[candidates[b]]
	})

	taken := make([]bool, len(returns))
	moves := make([]models.Move, 0, cfg.NumMoves)
	for _, end := range candidates {
		if len(moves) == cfg.NumMoves {
			break
		}
		start := end - w + 1
		if start < 0 {
			start = 0
		}
		if overlaps(taken, start, end) {
			continue
		}
		for i := start; i <= end; i++ {
			taken[i] = true
		}
		moves = append(moves, models.Move{
			Rank:       len(moves) + 1,
			Start:      series.Points[start].Date,
			End:        series.Points[end].Date,
			StartPrice: series.Points[start].Price,
			EndPrice:   series.Points[end].Price,
			Return:     returns[end],
		})
	}
	return moves, nil
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i <= end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

// Detect computes rolling returns over the series, selects the top moves and
// folds both into a table.
func Detect(series models.PriceSeries, cfg Config) (*models.BigMovesTable, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrEmptySeries, series.Pair)
	}
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	returns := RollingReturn(series.Prices(), cfg.WindowSize)
	moves, err := SelectTopMoves(series, returns, cfg)
	if err != nil {
		return nil, err
	}

	flagged := make(map[int]bool, len(moves)*cfg.WindowSize)
	idx := make(map[int64]int, series.Len())
	for i, p := range series.Points {
		idx[p.Date.Unix()] = i
	}
	for _, m := range moves {
		s, e := idx[m.Start.Unix()], idx[m.End.Unix()]
		if cfg.Highlight == models.HighlightEnd {
			flagged[e] = true
			continue
		}
		for i := s; i <= e; i++ {
			flagged[i] = true
		}
	}

	rows := make([]models.BigMovesRow, series.Len())
	for i, p := range series.Points {
		rows[i] = models.BigMovesRow{
			Date:          p.Date,
			Price:         p.Price,
			RollingReturn: returns[i],
			IsMoveStart:   flagged[i],
		}
	}

	return &models.BigMovesTable{
		Pair:       series.Pair,
		WindowSize: cfg.WindowSize,
		Direction:  cfg.Direction,
		Highlight:  cfg.Highlight,
		Rows:       rows,
		Moves:      moves,
	}, nil
}
