package depot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Policy is the admission policy of a single warehouse.
type Policy struct {
	Name         string   `json:"name" mapstructure:"name" validate:"required,warehouse_name"`
	MaxFiles     int      `json:"max_files" mapstructure:"max_files" validate:"min=1"`
	MaxSize      int64    `json:"max_size" mapstructure:"max_size" validate:"min=1"`
	AllowedTypes []string `json:"allowed_types" mapstructure:"allowed_types" validate:"min=1,dive,required"`
}

// Allows reports whether contentType is whitelisted by the policy.
// Parameters are ignored and the comparison is case-insensitive.
func (p Policy) Allows(contentType string) bool {
	mediaType := NormalizeMediaType(contentType)
	if mediaType == "" {
		return false
	}
	for _, t := range p.AllowedTypes {
		if NormalizeMediaType(t) == mediaType {
			return true
		}
	}
	return false
}

// File is a stored file record owned by exactly one warehouse.
type File struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Location    string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Candidate is an upload that has been received in full but not yet admitted.
type Candidate struct {
	Name        string
	Size        int64
	ContentType string
	Location    string
}

// FileInfo is the result of a global lookup.
// The "warhouse" key is kept as-is for compatibility with existing clients.
type FileInfo struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Warehouse string `json:"warhouse"`
	Type      string `json:"type"`
}

// UploadObject describes an incoming upload as declared by the client.
type UploadObject struct {
	Name        string
	ContentType string
}

// SaveResult is returned by FileStorage.Write.
type SaveResult struct {
	BytesWritten int64
}

// ObjectEntry is a single object present in the backing storage.
type ObjectEntry struct {
	Key  string
	Size int64
}

// Download is an open transfer of a stored file.
// Size is the live size of the backing object, not the recorded one.
// The caller must close Content.
type Download struct {
	File    File
	Size    int64
	Content io.ReadCloser
}

// WarehouseSummary is the status of one warehouse.
type WarehouseSummary struct {
	Name         string   `json:"-"`
	MaxSize      int64    `json:"maxSize"`
	AllowedTypes []string `json:"allowedTypes"`
	MaxFiles     int      `json:"maxFiles"`
	FileCount    int      `json:"fileCount"`
	UsedStorage  int64    `json:"usedStorage"`
	FileNames    []string `json:"fileNames"`
}

// Summary is the status of every warehouse in registry order.
// It marshals to a JSON object keyed by warehouse name, preserving that order.
type Summary []WarehouseSummary

// Get returns the summary of the named warehouse.
func (s Summary) Get(name string) (WarehouseSummary, bool) {
	for _, ws := range s {
		if ws.Name == name {
			return ws, true
		}
	}
	return WarehouseSummary{}, false
}

func (s Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ws := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ws.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal summary key: %w", err)
		}
		val, err := json.Marshal(ws)
		if err != nil {
			return nil, fmt.Errorf("marshal summary %s: %w", ws.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a summary object, keeping the order of its keys.
func (s *Summary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("unmarshal summary: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unmarshal summary: expected object, got %v", tok)
	}

	out := Summary{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("unmarshal summary: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unmarshal summary: expected key, got %v", tok)
		}

		var ws WarehouseSummary
		if err := dec.Decode(&ws); err != nil {
			return fmt.Errorf("unmarshal summary %s: %w", name, err)
		}
		ws.Name = name
		out = append(out, ws)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("unmarshal summary: %w", err)
	}

	*s = out
	return nil
}

// Outcome is the result of an admission decision.
type Outcome string

const (
	OutcomeAdmitted         Outcome = "admitted"
	OutcomeCapacityExceeded Outcome = "capacity_exceeded"
	OutcomeFileTooLarge     Outcome = "file_too_large"
	OutcomeTypeNotAllowed   Outcome = "type_not_allowed"
	OutcomeDuplicateName    Outcome = "duplicate_name"
)

// Event is one journaled admission decision.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Warehouse   string    `json:"warehouse"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Outcome     Outcome   `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventQuery filters journal listings.
type EventQuery struct {
	Warehouse string
	Limit     int
}

// Tables holds configurable table names for the upload journal.
type Tables struct {
	Events string `mapstructure:"events"`
}
