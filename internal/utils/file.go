package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKind is the input category inferred from a file name
type FileKind int

const (
	KindUnknown FileKind = iota
	KindText
	KindTranscript
	KindPDF
)

var kindsByExtension = map[string]FileKind{
	".txt":      KindText,
	".text":     KindText,
	".md":       KindText,
	".markdown": KindText,
	".json":     KindTranscript,
	".pdf":      KindPDF,
}

// Classify maps a file name to its kind by extension, ignoring case
func Classify(filename string) FileKind {
	return kindsByExtension[strings.ToLower(filepath.Ext(filename))]
}

func (k FileKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTranscript:
		return "transcript"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Readable reports whether the kind is read as text by the file commands
func (k FileKind) Readable() bool {
	return k == KindText || k == KindTranscript
}

var pdfMagic = []byte("%PDF-")

// LooksLikePDF checks the PDF header, allowing leading whitespace
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), pdfMagic)
}

// ValidateInputFile checks that filename names a readable regular file
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile creates the parent directory of filename. An empty name
// means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// FormatFileSize renders size with binary units, e.g. "2.0 KB"
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
