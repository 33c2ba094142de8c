package response_models

type PlanSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt *int64 `json:"completed_at,omitempty"`
}

type PlanDetail struct {
	PlanSummary
	Prompt      string `json:"prompt"`
	Content     string `json:"content"`
	ContentHTML string `json:"content_html,omitempty"`
	Error       string `json:"error,omitempty"`
}

type PlanAccepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}
