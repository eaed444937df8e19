package chart

import (
	"fmt"
	"math"
	"time"

	"github.com/guptarohit/asciigraph"
	lru "github.com/hashicorp/golang-lru/v2"

	"cubetimer/internal/timer"
)

// FadeDelay is how long a hidden chart keeps rendering before it is removed.
const FadeDelay = 500 * time.Millisecond

const defaultCacheSize = 1024

// Parser converts formatted times to milliseconds, memoizing results.
type Parser struct {
	cache *lru.Cache[string, float64]
}

func NewParser(size int) (*Parser, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	return &Parser{cache: cache}, nil
}

// Series maps each time to milliseconds. Malformed strings become NaN so the
// plot shows a gap at their position.
func (p *Parser) Series(times []string) []float64 {
	series := make([]float64, len(times))
	for i, s := range times {
		series[i] = p.value(s)
	}
	return series
}

func (p *Parser) value(s string) float64 {
	if v, ok := p.cache.Get(s); ok {
		return v
	}
	v := math.NaN()
	if ms, err := timer.Parse(s); err == nil {
		v = float64(ms)
	}
	p.cache.Add(s, v)
	return v
}

// Options control the rendered plot size.
type Options struct {
	Width  int
	Height int
}

// Render plots series against its 1-based position.
func Render(series []float64, opts Options) string {
	valid := 0
	for _, v := range series {
		if !math.IsNaN(v) {
			valid++
		}
	}
	if valid == 0 {
		return "No times recorded yet."
	}

	height := opts.Height
	if height <= 0 {
		height = 10
	}

	seconds := make([]float64, len(series))
	for i, v := range series {
		seconds[i] = v / 1000
	}

	plotOpts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(fmt.Sprintf("seconds per solve, 1..%d", len(series))),
	}
	if opts.Width > 0 {
		plotOpts = append(plotOpts, asciigraph.Width(opts.Width))
	}
	return asciigraph.Plot(seconds, plotOpts...)
}
