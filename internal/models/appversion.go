package models

// AppVersion is a published client release for one platform.
type AppVersion struct {
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	Beta        bool   `json:"beta"`
	Publisher   string `json:"publisher"`
	Description string `json:"description"`
	DownloadURL string `json:"downloadUrl"`
	Timestamp   int64  `json:"timestamp"`
}
