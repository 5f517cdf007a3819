package models

import "time"

// InputType is the kind of content a record was created from
type InputType string

// InputType constants.
// InputTypeFile is accepted only by submissions, the classifier handles the other three.
const (
	InputTypeText  InputType = "text"
	InputTypeURL   InputType = "url"
	InputTypeImage InputType = "image"
	InputTypeFile  InputType = "file"
)

// IsValid reports whether t is a known input type
func (t InputType) IsValid() bool {
	switch t {
	case InputTypeText, InputTypeURL, InputTypeImage, InputTypeFile:
		return true
	}
	return false
}

// HasUpload reports whether records of this type keep their content in upload storage
func (t InputType) HasUpload() bool {
	return t == InputTypeImage || t == InputTypeFile
}

// Classification is the verdict state of a record
type Classification string

// Classification constants
const (
	ClassificationPending   Classification = "Pending"
	ClassificationFake      Classification = "Fake"
	ClassificationReal      Classification = "Real"
	ClassificationUncertain Classification = "Uncertain"
)

// AnalysisResult is the normalized outcome of a classification
type AnalysisResult struct {
	Classification  Classification `json:"classification"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Explanation     string         `json:"explanation"`
	Sources         []string       `json:"sources"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Analysis represents a stored analysis or submission record.
// Records are immutable once created.
type Analysis struct {
	ID        int            `json:"_id"`
	UserID    int            `json:"userId"`
	InputType InputType      `json:"inputType"`
	Content   string         `json:"content"`
	SourceURL string         `json:"sourceUrl,omitempty"`
	Result    AnalysisResult `json:"result"`
	CreatedAt time.Time      `json:"timestamp"`
}

// AnalysisOwner is the subset of user fields joined into admin listings
type AnalysisOwner struct {
	ID       int    `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AnalysisWithOwner is an analysis joined with its owner, used by admin listings
type AnalysisWithOwner struct {
	Analysis
	Owner AnalysisOwner `json:"user"`
}

// AnalyzeRequest represents a JSON analyze request
type AnalyzeRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SubmissionRequest represents a JSON submission request
type SubmissionRequest struct {
	InputType   string `json:"inputType"`
	TextContent string `json:"textContent"`
	SourceURL   string `json:"sourceUrl"`
}

// Stats holds the admin dashboard counters
type Stats struct {
	UserCount     int `json:"userCount"`
	AnalysisCount int `json:"analysisCount"`
	FakeCount     int `json:"fakeCount"`
	RealCount     int `json:"realCount"`
}

// SubmissionResponse is returned when a submission is accepted
type SubmissionResponse struct {
	Message    string    `json:"message"`
	Submission *Analysis `json:"submission"`
}
