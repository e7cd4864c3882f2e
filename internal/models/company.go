package models

// Company is one entry in the static ticker directory. The directory is
// seeded once and read-only during a backfill run; prices reference it by
// ticker.
type Company struct {
	Ticker            string `json:"ticker"`
	Name              string `json:"name"`
	Sector            string `json:"sector,omitempty"`
	Description       string `json:"description,omitempty"`
	IncorporationYear int    `json:"incorporation_year,omitempty"`
}
