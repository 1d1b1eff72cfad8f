package common

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/types"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestValidateAndReadFiles(t *testing.T) {
	fp := NewFileProcessor(testLogger)
	resume := writeTemp(t, "resume.txt", "Go developer")
	transcript := writeTemp(t, "call.json", "[]")

	contents, err := fp.ValidateAndReadFiles(resume, transcript)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if contents[0] != "Go developer" || contents[1] != "[]" {
		t.Errorf("Unexpected contents: %v", contents)
	}

	_, err = fp.ValidateAndReadFiles(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Type != errors.ErrorTypeValidation {
		t.Errorf("Expected validation AppError, got %T: %v", err, err)
	}

	_, err = NewFileProcessor(testLogger).WithMaxSize(5).ValidateAndReadFiles(resume)
	if err == nil || !strings.Contains(err.Error(), "FILE_TOO_LARGE") {
		t.Errorf("Expected size limit error, got %v", err)
	}
}

func TestReadBinaryFile(t *testing.T) {
	fp := NewFileProcessor(testLogger)
	pdf := writeTemp(t, "resume.pdf", "%PDF-1.4 body")

	data, err := fp.ReadBinaryFile(pdf, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Errorf("Unexpected data: %q", data)
	}

	_, err = fp.ReadBinaryFile(pdf, 4)
	if err == nil || !strings.Contains(err.Error(), "limit is 4 B") {
		t.Errorf("Expected size limit error, got %v", err)
	}
}

func TestFileCommandExecute(t *testing.T) {
	input := writeTemp(t, "resume.txt", "Go developer")
	output := filepath.Join(t.TempDir(), "out", "questions.txt")

	var described types.QuestionsInput
	command := FileCommand[types.QuestionsInput, types.QuestionsOutput]{
		Name:   "questions",
		Output: CommandConfig{OutputFile: output, OutputFormat: "text"},
		Parse: func(contents []string) (types.QuestionsInput, error) {
			return types.QuestionsInput{Resume: contents[0], Language: "en"}, nil
		},
		Describe: func(in types.QuestionsInput) []any {
			described = in
			return []any{"language", in.Language}
		},
		Run: func(_ context.Context, in types.QuestionsInput) (types.QuestionsOutput, *ai.TokenUsage, error) {
			return types.QuestionsOutput{Language: in.Language, Questions: []string{"Why " + in.Resume + "?"}},
				&ai.TokenUsage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7}, nil
		},
	}

	if err := command.Execute(context.Background(), testLogger, []string{input}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if described.Resume != "Go developer" {
		t.Errorf("Expected Describe to see the input, got %+v", described)
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if !strings.Contains(string(written), "1. Why Go developer?") {
		t.Errorf("Unexpected output:\n%s", written)
	}
}

func TestFileCommandExecuteErrors(t *testing.T) {
	input := writeTemp(t, "resume.txt", "Go developer")
	ran := false
	command := FileCommand[string, string]{
		Name:   "broken",
		Output: CommandConfig{OutputFormat: "json"},
		Parse: func([]string) (string, error) {
			return "", fmt.Errorf("bad input")
		},
		Run: func(context.Context, string) (string, *ai.TokenUsage, error) {
			ran = true
			return "", nil, nil
		},
	}

	err := command.Execute(context.Background(), testLogger, []string{input})
	if err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("Expected parse error, got %v", err)
	}
	if ran {
		t.Error("Expected Run to be skipped after a parse error")
	}

	err = command.Execute(context.Background(), testLogger, []string{filepath.Join(t.TempDir(), "missing.txt")})
	if err == nil {
		t.Error("Expected error for a missing input file")
	}
}
