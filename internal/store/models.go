package store

// Import represents a row in the imports table
type Import struct {
	ID          string `json:"id"` // UUID
	Source      string `json:"source"`
	CreatedAt   int64  `json:"created_at"` // Unix millis
	Individuals int    `json:"individuals"`
	Families    int    `json:"families"`
}
