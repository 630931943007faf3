package models

import "time"

// Evidence represents a watermarked visit photo kept by the service
type Evidence struct {
	ID               string    `json:"id"`
	SiteName         string    `json:"site_name"`
	OperatorName     string    `json:"operator_name"`
	VisitedAt        time.Time `json:"visited_at"`
	OriginalFilename string    `json:"original_filename"`
	Filename         string    `json:"filename"`
	ImagePath        string    `json:"image_path"`
	ImageURL         string    `json:"image_url"`
	Format           string    `json:"format"` // "webp", "jpeg"
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	SizeBytes        int       `json:"size_bytes"`
	Uploaded         bool      `json:"uploaded"`
	UploadError      string    `json:"upload_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
