package model

// Point is a vertex of the map graph. PostIdx is 0 when no post resides at
// this point (post ids start at 1).
type Point struct {
	Idx     int
	PostIdx int
}

// Coordinate is the geometry of a point, served on map layer 10 only.
type Coordinate struct {
	Idx int `json:"idx"`
	X   int `json:"x"`
	Y   int `json:"y"`
}
