package models

import "time"

type InquiryDraft struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Inquiry is the payload handed to the message-delivery collaborator.
type Inquiry struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}
