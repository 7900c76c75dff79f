package types

// SortDirection is the direction of an active sort.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Opposite returns the other direction. Anything that is not desc flips to desc.
func (d SortDirection) Opposite() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// SortState is the active sort of a table. A nil *SortState means unsorted.
type SortState struct {
	ColumnKey string        `json:"columnKey"`
	Direction SortDirection `json:"direction"`
}

// Sort is the server-side sort emitted in hub request parameters.
type Sort struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}
