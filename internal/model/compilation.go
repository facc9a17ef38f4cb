package model

// Compilation is a curated, optionally pinned set of events.
type Compilation struct {
	ID     int64   `json:"id"`
	Pinned bool    `json:"pinned"`
	Title  string  `json:"title"`
	Events []Event `json:"events"`
}

// NewCompilationRequest is the payload for creating a compilation.
type NewCompilationRequest struct {
	Events []int64 `json:"events"`
	Pinned *bool   `json:"pinned"`
	Title  string  `json:"title" validate:"required,min=1,max=50"`
}

// UpdateCompilationRequest edits a compilation. Nil fields are left
// unchanged; a non-nil Events replaces the whole list, so [] empties it.
type UpdateCompilationRequest struct {
	Events []int64 `json:"events"`
	Pinned *bool   `json:"pinned"`
	Title  *string `json:"title" validate:"omitnil,min=1,max=50"`
}
