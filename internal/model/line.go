package model

// Line is an undirected edge of the map graph. A train's position along a
// line is an integer in [0, Length]; position 0 corresponds to Points[0],
// position Length to Points[1].
type Line struct {
	Idx    int
	Length int
	Points [2]int
}

// HasPoint reports whether the line touches the given point.
func (l *Line) HasPoint(pointIdx int) bool {
	return l.Points[0] == pointIdx || l.Points[1] == pointIdx
}

// EndpointAt maps a boundary position to the point id there.
// Valid only for position 0 or Length.
func (l *Line) EndpointAt(position int) int {
	if position == 0 {
		return l.Points[0]
	}
	return l.Points[1]
}
