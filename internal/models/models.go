package models

// QnAPair is a generated interview-style question with its answer.
type QnAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatTurn is one question/answer exchange in a user's transcript.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// IngestResult is what one document upload produces.
type IngestResult struct {
	UserID   string    `json:"user_id"`
	Pairs    []QnAPair `json:"qna"`
	Degraded bool      `json:"degraded"`
	Chunks   int       `json:"-"`
}
