package models

import "time"

// PDFMediaType is the only declared media type accepted at intake.
const PDFMediaType = "application/pdf"

// FileInfo represents metadata about an uploaded PDF.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MediaType  string    `json:"mediaType"`
	UploadedAt time.Time `json:"uploadedAt"`
}
