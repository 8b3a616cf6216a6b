package transfer

type PostCreation struct {
	Caption     string            `json:"caption"`
	Title       string            `json:"title"`
	Platforms   []string          `json:"platforms"`
	Overrides   map[string]string `json:"overrides"` // platform -> content override
	MediaURLs   []string          `json:"media_urls"`
	ScheduledAt string            `json:"scheduled_at"` // 2006-01-02T15:04, empty for draft
	Auto        bool              `json:"auto"`         // let the planner pick the slot
}

type ScheduleRequest struct {
	PostID      int64  `json:"post_id"`
	ScheduledAt string `json:"scheduled_at"`
	Auto        bool   `json:"auto"`
}

type PublishNowRequest struct {
	PostID int64 `json:"post_id"`
}

type DispatchOutcome struct {
	Platform   string `json:"platform"`
	Success    bool   `json:"success"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type PublishResponse struct {
	PostID   int64             `json:"post_id"`
	Status   string            `json:"status"`
	Outcomes []DispatchOutcome `json:"outcomes"`
}
