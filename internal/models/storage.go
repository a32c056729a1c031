package models

// UploadInput requests a presigned direct-to-store upload slot.
type UploadInput struct {
	Name     string `json:"name" validate:"required,lte=255"`
	MimeType string `json:"mime_type" validate:"required,lte=100"`
	Size     int64  `json:"size" validate:"omitempty"`
}

// PresignedUpload tells an external caller how to push bytes to the
// store without routing them through this process.
type PresignedUpload struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields,omitempty"`
	Key    string            `json:"key"`
}
