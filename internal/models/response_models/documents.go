package response_models

type DocumentResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	FileName   string   `json:"file_name"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	ChunkCount int      `json:"chunk_count"`
	Tags       []string `json:"tags"`
	CreatedAt  int64    `json:"created_at"`
}

type ChunkMatch struct {
	DocumentID string  `json:"document_id"`
	Position   int     `json:"position"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
}
