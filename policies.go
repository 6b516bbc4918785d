package depot

const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
)

// DefaultPolicies returns the built-in warehouse table in registry order.
// A fresh slice is returned on every call.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Name:         "media",
			MaxFiles:     5,
			MaxSize:      50 * MiB,
			AllowedTypes: []string{"image/jpeg", "image/png", "video/mp4"},
		},
		{
			Name:         "books",
			MaxFiles:     5,
			MaxSize:      10 * MiB,
			AllowedTypes: []string{"application/pdf", "text/plain"},
		},
		{
			Name:     "executables",
			MaxFiles: 5,
			MaxSize:  100 * MiB,
			AllowedTypes: []string{
				"application/x-msdownload",
				"application/x-sh",
				"application/x-executable",
			},
		},
		{
			Name:         "video",
			MaxFiles:     5,
			MaxSize:      30 * MiB,
			AllowedTypes: []string{"video/mp4", "video/avi", "video/mpeg"},
		},
		{
			Name:         "audio",
			MaxFiles:     5,
			MaxSize:      5 * MiB,
			AllowedTypes: []string{"audio/mpeg", "audio/wav", "audio/ogg"},
		},
		{
			Name:     "docs",
			MaxFiles: 5,
			MaxSize:  50 * MiB,
			AllowedTypes: []string{
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				"application/vnd.ms-excel",
			},
		},
	}
}
