package models

type InquirySubmittedEvent struct {
	InquiryID string `json:"inquiry_id"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
