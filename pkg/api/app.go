package api

// PublishVersionRequest publishes a new client release. Secret must
// match the server's developer secret.
type PublishVersionRequest struct {
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	Beta        bool   `json:"beta,omitempty"`
	Publisher   string `json:"publisher"`
	Description string `json:"description,omitempty"`
	DownloadURL string `json:"downloadUrl"`
	Secret      string `json:"secret"`
}

// AppVersionResponse describes the latest release for a platform.
type AppVersionResponse struct {
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	Beta        bool   `json:"beta"`
	Publisher   string `json:"publisher"`
	Description string `json:"description"`
	DownloadURL string `json:"downloadUrl"`
	Timestamp   int64  `json:"timestamp"`
}
