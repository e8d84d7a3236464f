package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/atelier-hq/atelier-backend/internal/engine"
)

type layoutPosition struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type layoutSquare struct {
	ID               string          `json:"id"`
	Position         *layoutPosition `json:"position"`
	AllowedColors    []string        `json:"allowedColors"`
	AllowedColorsAlt []string        `json:"allowed_colors"`
}

type canvasLayout struct {
	ID      string         `json:"id"`
	Squares []layoutSquare `json:"squares"`
}

func isPaintColor(value string) bool {
	for _, c := range engine.Palette {
		if string(c) == value {
			return true
		}
	}
	return false
}

// normalizeColors keeps only recognized palette entries; anything else in the
// catalog row is ignored rather than rejected.
func normalizeColors(values []string) []engine.PaintColor {
	out := []engine.PaintColor{}
	for _, v := range values {
		if isPaintColor(v) {
			out = append(out, engine.PaintColor(v))
		}
	}
	return out
}

// buildDefinition turns a catalog row into a playable definition. Catalog
// rows are hand-authored, so missing ids and positions get defaults instead
// of failing the whole deck; a row without squares is unusable and errors.
func buildDefinition(row CanvasRecord) (engine.CanvasDefinition, error) {
	if strings.TrimSpace(row.LayoutJSON) == "" {
		return engine.CanvasDefinition{}, fmt.Errorf("canvas %d: layout_json is missing", row.ID)
	}

	var layout canvasLayout
	if err := json.Unmarshal([]byte(row.LayoutJSON), &layout); err != nil {
		return engine.CanvasDefinition{}, fmt.Errorf("canvas %d: parse layout_json: %w", row.ID, err)
	}
	if len(layout.Squares) == 0 {
		return engine.CanvasDefinition{}, fmt.Errorf("canvas %d: no square definitions", row.ID)
	}

	id := strings.TrimSpace(layout.ID)
	if id == "" {
		id = fmt.Sprintf("canvas-%d", row.ID)
	}

	squares := make([]engine.CanvasSquare, len(layout.Squares))
	for i, sq := range layout.Squares {
		x, y := i, 0
		if sq.Position != nil {
			if sq.Position.X != nil {
				x = *sq.Position.X
			}
			if sq.Position.Y != nil {
				y = *sq.Position.Y
			}
		}
		sqID := strings.TrimSpace(sq.ID)
		if sqID == "" {
			sqID = fmt.Sprintf("square-%d", i)
		}
		colors := sq.AllowedColors
		if len(colors) == 0 {
			colors = sq.AllowedColorsAlt
		}
		squares[i] = engine.CanvasSquare{ID: sqID, AllowedColors: normalizeColors(colors), X: x, Y: y}
	}
	sort.SliceStable(squares, func(i, j int) bool {
		if squares[i].Y != squares[j].Y {
			return squares[i].Y < squares[j].Y
		}
		return squares[i].X < squares[j].X
	})

	def := engine.CanvasDefinition{
		ID:         id,
		Title:      row.Title,
		StarValue:  row.StarValue,
		PaintValue: row.PaintValue,
		FoodValue:  row.FoodValue,
		Squares:    squares,
	}
	if row.Artist != nil {
		def.Artist = *row.Artist
	}
	if row.Year != nil {
		def.Year = *row.Year
	}
	return def, nil
}
