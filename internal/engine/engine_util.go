package engine

func slotCost(index int) int { return index + 1 }

// DrawFromBag takes count cubes off the head of the bag in original order.
func DrawFromBag(bag []PaintCube, count int) (drawn, remaining []PaintCube) {
	if count > len(bag) {
		count = len(bag)
	}
	drawn = cloneCubes(bag[:count])
	remaining = cloneCubes(bag[count:])
	return drawn, remaining
}

// NewCanvasState instantiates a card from its definition with no cubes placed.
func NewCanvasState(def CanvasDefinition, createdAt string) CanvasState {
	return CanvasState{
		ID:          def.ID,
		Definition:  def.clone(),
		PlacedCubes: map[string]PaintCube{},
		CreatedAt:   createdAt,
	}
}

func findPlayerIndex(s GameState, playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// FindPlayer returns the player with the given id, or nil.
func FindPlayer(s *GameState, playerID string) *Player {
	idx := findPlayerIndex(*s, playerID)
	if idx == -1 {
		return nil
	}
	return &s.Players[idx]
}

func findPlayerCanvas(p *Player, canvasID string) *CanvasState {
	for i := range p.Studio.Canvases {
		if p.Studio.Canvases[i].ID == canvasID {
			return &p.Studio.Canvases[i]
		}
	}
	return nil
}

func findSquare(c *CanvasState, squareID string) *CanvasSquare {
	for i := range c.Definition.Squares {
		if c.Definition.Squares[i].ID == squareID {
			return &c.Definition.Squares[i]
		}
	}
	return nil
}

// IsCanvasComplete reports whether every square holds a cube.
func IsCanvasComplete(c *CanvasState) bool {
	return len(c.Definition.Squares) > 0 && len(c.PlacedCubes) >= len(c.Definition.Squares)
}

// WildCubeCount counts wild cubes already placed on the canvas.
func WildCubeCount(c *CanvasState) int {
	n := 0
	for _, cube := range c.PlacedCubes {
		if cube.Color == ColorWild {
			n++
		}
	}
	return n
}
