package clientcli

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Warehouse   string
	LocalPath   string
	Name        string // optional, defaults to the base name of LocalPath
	ContentType string // optional, detected from the file content if empty
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	Warehouse   string `json:"warehouse"`
	LocalPath   string `json:"local_path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
	Message     string `json:"message,omitempty"`
	Err         error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Warehouse string
	Name      string
	LocalPath string // empty = server-provided file name, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Warehouse   string `json:"warehouse"`
	Name        string `json:"name"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}
