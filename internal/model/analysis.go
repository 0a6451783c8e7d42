package model

import "time"

// Scores holds the six integer ratings Gemini assigns to a commit history.
// Each is conceptually 0-100. The response schema enforces the field set and
// the integer type, not the range — an out-of-range value from the model
// passes through unchanged.
type Scores struct {
	Test            int `json:"test"`
	Comment         int `json:"comment"`
	CommitSize      int `json:"commit_size"`
	CommitFrequency int `json:"commit_frequency"`
	CommitMessage   int `json:"commit_message"`
	Activity        int `json:"activity"`
}

// Report holds the free-text rationale for each score. The field names
// mirror Scores exactly — the two structs always travel together.
type Report struct {
	Test            string `json:"test"`
	Comment         string `json:"comment"`
	CommitSize      string `json:"commit_size"`
	CommitFrequency string `json:"commit_frequency"`
	CommitMessage   string `json:"commit_message"`
	Activity        string `json:"activity"`
}

// AnalysisResult is the parsed structured output of one generation call:
// scores and report, nothing else. The service layer attaches it to an
// Analysis before persisting.
type AnalysisResult struct {
	Scores Scores `json:"scores"`
	Report Report `json:"report"`
}

// Analysis is one stored analysis run.
//
// An Analysis belongs to exactly one user and is only ever visible through
// that user: every repository query conjoins id AND user_id. It is immutable
// after creation except for Memo.
//
// WHY Memo *string?
// The memo is genuinely optional — "never written" and "written as empty"
// are different states, and the original record starts with no memo at all.
// A nil pointer serializes to JSON null, which is what clients expect.
type Analysis struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RepoURL   string    `json:"repo_url"`
	Branch    string    `json:"branch"`
	Scores    Scores    `json:"scores"`
	Report    Report    `json:"report"`
	Memo      *string   `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
