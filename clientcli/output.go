package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/sagarc03/depot"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatStorages(w io.Writer, summary depot.Summary) error
	FormatInfo(w io.Writer, info depot.FileInfo) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s/%s (%s, %s)\n", r.LocalPath, r.Warehouse, r.Name, formatSize(r.Size), r.ContentType)
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s/%s (%s)\n", result.Warehouse, result.Name, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s/%s -> %s (%s)\n", result.Warehouse, result.Name, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatStorages prints one row per warehouse in server order.
func (f *HumanFormatter) FormatStorages(w io.Writer, summary depot.Summary) error {
	if len(summary) == 0 {
		_, _ = fmt.Fprintln(w, "No warehouses")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "WAREHOUSE\tFILES\tUSED\tMAX FILE\tTYPES")
	for i := range summary {
		ws := &summary[i]
		_, _ = fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%s\t%s\n",
			ws.Name,
			ws.FileCount,
			ws.MaxFiles,
			formatSize(ws.UsedStorage),
			formatSize(ws.MaxSize),
			strings.Join(ws.AllowedTypes, ", "),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if f.Quiet {
		return nil
	}
	for i := range summary {
		ws := &summary[i]
		names := nonEmpty(ws.FileNames)
		if len(names) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s:\n", ws.Name)
		for _, n := range names {
			_, _ = fmt.Fprintf(w, "  %s\n", n)
		}
	}
	return nil
}

// FormatInfo formats a file lookup as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, info depot.FileInfo) error {
	_, _ = fmt.Fprintf(w, "Name:      %s\n", info.Name)
	_, _ = fmt.Fprintf(w, "Warehouse: %s\n", info.Warehouse)
	_, _ = fmt.Fprintf(w, "Type:      %s\n", info.Type)
	_, _ = fmt.Fprintf(w, "Size:      %s (%d bytes)\n", formatSize(info.Size), info.Size)
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tWAREHOUSE")
	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		warehouse := p.Warehouse
		if warehouse == "" {
			warehouse = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, p.Name, p.Endpoint, warehouse)
	}
	return tw.Flush()
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:      %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint:  %s\n", profile.Endpoint)
	warehouse := profile.Warehouse
	if warehouse == "" {
		warehouse = "(not set)"
	}
	_, _ = fmt.Fprintf(w, "Warehouse: %s\n", warehouse)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath   string `json:"local_path"`
		Warehouse   string `json:"warehouse"`
		Name        string `json:"name,omitempty"`
		ContentType string `json:"content_type,omitempty"`
		Size        int64  `json:"size_bytes,omitempty"`
		Message     string `json:"message,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
			Warehouse: r.Warehouse,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.Name = r.Name
			jr.ContentType = r.ContentType
			jr.Size = r.Size
			jr.Message = r.Message
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatStorages writes the summary in the server's own shape.
func (f *JSONFormatter) FormatStorages(w io.Writer, summary depot.Summary) error {
	return writeJSON(w, summary)
}

// FormatInfo formats a file lookup as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, info depot.FileInfo) error {
	return writeJSON(w, info)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type jsonProfile struct {
		Name      string `json:"name"`
		Endpoint  string `json:"endpoint"`
		Warehouse string `json:"warehouse,omitempty"`
		Default   bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:      p.Name,
			Endpoint:  p.Endpoint,
			Warehouse: p.Warehouse,
			Default:   p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	output := struct {
		Name      string `json:"name"`
		Endpoint  string `json:"endpoint"`
		Warehouse string `json:"warehouse"`
		Default   bool   `json:"default"`
	}{
		Name:      profile.Name,
		Endpoint:  profile.Endpoint,
		Warehouse: profile.Warehouse,
		Default:   isDefault,
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(bytes))
}

// nonEmpty drops the placeholder "" some servers report for empty warehouses.
func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
