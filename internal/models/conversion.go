package models

// ConvertStatus is the derived status of a conversion session. It is a view
// over the session's state fields, not a stored value: converting while the
// pipeline runs, then error or complete depending on which field is set.
type ConvertStatus string

const (
	StatusPending    ConvertStatus = "pending"
	StatusConverting ConvertStatus = "converting"
	StatusComplete   ConvertStatus = "complete"
	StatusError      ConvertStatus = "error"
)

// Terminal reports whether the session has finished, successfully or not.
func (s ConvertStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ConvertSession is the API view of one conversion attempt.
type ConvertSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	FileName         string        `json:"fileName,omitempty"`
	Status           ConvertStatus `json:"status"`
	Error            string        `json:"error,omitempty"`
	PageCount        int           `json:"pageCount,omitempty"`
	SkippedPages     int           `json:"skippedPages,omitempty"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	HasResult        bool          `json:"hasResult"`
}
