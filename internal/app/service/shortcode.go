package service

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	nanoid "github.com/jaevor/go-nanoid"
	"github.com/sifan077/PayLink/internal/app/model"
)

const (
	shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxDraws bounds redraws when the filter reports a code as issued.
	maxDraws = 8

	bloomFalsePositiveRate = 0.001
)

// ShortCodeGenerator draws fixed-width alphanumeric codes. A bloom filter of
// issued codes skips most collisions before they reach the unique index.
type ShortCodeGenerator struct {
	mu     sync.Mutex
	draw   func() string
	issued *bloom.BloomFilter
}

// NewShortCodeGenerator sizes the filter for about expected codes.
func NewShortCodeGenerator(expected uint) (*ShortCodeGenerator, error) {
	draw, err := nanoid.CustomASCII(shortCodeAlphabet, model.ShortCodeLength)
	if err != nil {
		return nil, fmt.Errorf("shortcode: build generator: %w", err)
	}
	if expected == 0 {
		expected = 1 << 20
	}
	return &ShortCodeGenerator{
		draw:   draw,
		issued: bloom.NewWithEstimates(expected, bloomFalsePositiveRate),
	}, nil
}

// Seed marks existing codes as issued.
func (g *ShortCodeGenerator) Seed(codes []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, code := range codes {
		g.issued.AddString(code)
	}
}

// Generate returns a code the filter has not seen, or the last draw when
// every attempt looked taken.
func (g *ShortCodeGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var code string
	for i := 0; i < maxDraws; i++ {
		code = g.draw()
		if !g.issued.TestString(code) {
			break
		}
	}
	g.issued.AddString(code)
	return code
}
