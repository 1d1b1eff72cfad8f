package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(file, []byte("Jane Doe"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing file", file, false},
		{"empty name", "", true},
		{"missing file", filepath.Join(dir, "nope.txt"), true},
		{"directory", dir, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInputFile(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "session.json")
	if err := ValidateOutputFile(out); err != nil {
		t.Fatalf("ValidateOutputFile() error: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(out)); err != nil {
		t.Errorf("expected directory to exist: %v", err)
	}
	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("stdout should be valid: %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		kind     FileKind
		readable bool
	}{
		{"resume.TXT", KindText, true},
		{"notes.md", KindText, true},
		{"call.json", KindTranscript, true},
		{"cv.PDF", KindPDF, false},
		{"photo.png", KindUnknown, false},
		{"README", KindUnknown, false},
	}
	for _, tt := range tests {
		got := Classify(tt.name)
		if got != tt.kind {
			t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.kind)
		}
		if got.Readable() != tt.readable {
			t.Errorf("Classify(%q).Readable() = %v", tt.name, got.Readable())
		}
	}
}

func TestLooksLikePDF(t *testing.T) {
	if !LooksLikePDF([]byte("%PDF-1.7\n...")) {
		t.Error("Expected PDF header to match")
	}
	if !LooksLikePDF([]byte("\r\n%PDF-1.4")) {
		t.Error("Expected leading whitespace to be ignored")
	}
	if LooksLikePDF([]byte("plain text resume")) {
		t.Error("Expected text not to match")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
