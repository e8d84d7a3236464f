package session

import (
	"context"
	"fmt"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

// CanvasCatalog supplies the card pool used when a start request brings no
// deck of its own.
type CanvasCatalog interface {
	FetchCanvasDefinitions(ctx context.Context) ([]engine.CanvasDefinition, error)
}

// resolveCanvasDeck picks the deck for a start request: an explicit override
// wins, then a deck in the payload, then a catalog fetch shuffled
// deterministically from the game id. The same game id always produces the
// same shuffle.
func (m *Manager) resolveCanvasDeck(ctx context.Context, gameID string, payload StartPayload) ([]engine.CanvasDefinition, error) {
	if len(payload.CanvasDeckOverride) > 0 {
		return payload.CanvasDeckOverride, nil
	}
	if len(payload.CanvasDeck) > 0 {
		return payload.CanvasDeck, nil
	}
	if m.catalog == nil {
		return nil, ErrEmptyDeck
	}
	defs, err := m.catalog.FetchCanvasDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch canvas catalog: %w", err)
	}
	if len(defs) == 0 {
		return nil, ErrEmptyDeck
	}
	return shuffleDefinitions(defs, gameID), nil
}

// hashSeed folds a string into a small positive seed, matching the shuffle
// parity of earlier deployments: h = h*31 + byte, mod 1e9, never zero.
func hashSeed(value string) int64 {
	var h int64
	for i := 0; i < len(value); i++ {
		h = (h*31 + int64(value[i])) % 1_000_000_000
	}
	if h == 0 {
		return 1
	}
	return h
}

// shuffleDefinitions is a Fisher-Yates over a copy of source, driven by the
// fixed linear-congruential step cur = cur*9301 + 49297 mod 233280.
func shuffleDefinitions(source []engine.CanvasDefinition, seedSource string) []engine.CanvasDefinition {
	shuffled := make([]engine.CanvasDefinition, len(source))
	copy(shuffled, source)

	cur := hashSeed(seedSource)
	next := func() float64 {
		cur = (cur*9301 + 49297) % 233280
		return float64(cur) / 233280
	}

	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(next() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
