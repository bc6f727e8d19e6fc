package models

import "time"

type CreateSessionRequest struct {
	// Query is the page query string, with or without the leading "?".
	Query string `json:"query"`
}

type IdentityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Course    string `json:"course"`
	DisplayID string `json:"display_id"`
	Greeting  string `json:"greeting"`
}

type FileResponse struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
}

type RunResponse struct {
	State    string   `json:"state"`
	Files    []string `json:"files,omitempty"`
	Uploaded []string `json:"uploaded,omitempty"`
	Failed   string   `json:"failed,omitempty"`
	Error    string   `json:"error,omitempty"`
	Notice   string   `json:"notice,omitempty"`
}

type SessionResponse struct {
	SessionID       string           `json:"session_id"`
	Identity        IdentityResponse `json:"identity"`
	Location        string           `json:"location"`
	Acknowledged    bool             `json:"acknowledged"`
	StagedFiles     []FileResponse   `json:"staged_files"`
	FileNames       string           `json:"file_names"`
	Progress        UploadProgress   `json:"progress"`
	Run             RunResponse      `json:"run"`
	Draft           InquiryDraft     `json:"draft"`
	ReaderAvailable bool             `json:"reader_available"`
	AcceptList      string           `json:"accept"`
	CreatedAt       time.Time        `json:"created_at"`
}

type UpdateIdentityRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type UpdateIdentityResponse struct {
	Identity     IdentityResponse `json:"identity"`
	Location     string           `json:"location"`
	Acknowledged bool             `json:"acknowledged"`
}

type AcknowledgmentResponse struct {
	StudentID    string `json:"student_id"`
	Acknowledged bool   `json:"acknowledged"`
}

type SelectFilesResponse struct {
	Files     []FileResponse `json:"files"`
	FileNames string         `json:"file_names"`
}

type SubmissionResponse struct {
	Progress UploadProgress `json:"progress"`
	Run      RunResponse    `json:"run"`
}

// UpdateDraftRequest leaves absent fields unchanged.
type UpdateDraftRequest struct {
	Subject *string `json:"subject"`
	Message *string `json:"message"`
}

type InquiryResponse struct {
	Inquiry *Inquiry `json:"inquiry"`
	Notice  string   `json:"notice"`
}

type ScanResponse struct {
	Started bool `json:"started"`
}

// TagRecordRequest is one NDEF record. Text is a convenience alternative to
// base64 Data for plain text records.
type TagRecordRequest struct {
	RecordType string `json:"recordType"`
	Encoding   string `json:"encoding,omitempty"`
	Lang       string `json:"lang,omitempty"`
	Data       []byte `json:"data,omitempty"`
	Text       string `json:"text,omitempty"`
}

type TagMessageRequest struct {
	Records []TagRecordRequest `json:"records"`
}

type ResourcesResponse struct {
	Resources         []Resource `json:"resources"`
	AcceptList        string     `json:"accept"`
	AllowedExtensions []string   `json:"allowed_extensions"`
}
