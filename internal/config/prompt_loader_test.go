package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "You analyze the tone of interview answers."
	userPromptContent := "Analyze this: %s"

	config := &Config{
		AI: AIConfig{
			Tone: OperationAIConfig{
				Prompts: PromptConfig{
					SystemFile: writePromptFile(t, tempDir, "system.tone.md", systemPromptContent),
					UserFile:   writePromptFile(t, tempDir, "user.tone.md", userPromptContent),
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetPromptsForOperation(OperationTone)
	if loaded.System != systemPromptContent {
		t.Errorf("Expected system prompt %q, got %q", systemPromptContent, loaded.System)
	}
	if loaded.User != userPromptContent {
		t.Errorf("Expected user prompt %q, got %q", userPromptContent, loaded.User)
	}

	other := GetPromptsForOperation(OperationFeedback)
	if other.System != "" || other.User != "" {
		t.Errorf("Expected no prompts for feedback, got %+v", other)
	}
}

func TestGlobalPromptFallback(t *testing.T) {
	tempDir := t.TempDir()

	config := &Config{
		AI: AIConfig{
			Prompts: PromptConfig{
				SystemFile: writePromptFile(t, tempDir, "system.md", "global system"),
			},
			Feedback: OperationAIConfig{
				Prompts: PromptConfig{
					UserFile: writePromptFile(t, tempDir, "user.feedback.md", "feedback user"),
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	loaded := GetPromptsForOperation(OperationFeedback)
	if loaded.System != "global system" {
		t.Errorf("Expected global system fallback, got %q", loaded.System)
	}
	if loaded.User != "feedback user" {
		t.Errorf("Expected feedback user prompt, got %q", loaded.User)
	}
}

func TestReloadPromptsPicksUpChanges(t *testing.T) {
	tempDir := t.TempDir()
	path := writePromptFile(t, tempDir, "system.questions.md", "version one")

	config := &Config{
		AI: AIConfig{
			Questions: OperationAIConfig{Prompts: PromptConfig{SystemFile: path}},
		},
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}

	writePromptFile(t, tempDir, "system.questions.md", "version two")
	if err := config.ReloadPrompts(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if got := GetPromptsForOperation(OperationQuestions).System; got != "version two" {
		t.Errorf("Expected reloaded prompt, got %q", got)
	}

	// A broken edit keeps the last good prompts.
	writePromptFile(t, tempDir, "system.questions.md", "   ")
	if err := config.ReloadPrompts(); err == nil {
		t.Fatal("Expected error for empty prompt file")
	}
	if got := GetPromptsForOperation(OperationQuestions).System; got != "version two" {
		t.Errorf("Expected previous prompt to survive failed reload, got %q", got)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePromptFile(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Extract: OperationAIConfig{Prompts: PromptConfig{SystemFile: validFile}},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Extract.Prompts.SystemFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("Expected validation to fail for non-existent file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := writePromptFile(t, tempDir, "test.md", "\n  "+content+"\n")

	loadedContent, err := loadPromptFromFile(testFile, "system", "tone")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loadedContent != content {
		t.Errorf("Expected content %q, got %q", content, loadedContent)
	}

	emptyFile := writePromptFile(t, tempDir, "empty.md", "")
	if _, err := loadPromptFromFile(emptyFile, "system", "tone"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "tone"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestPromptFilesDeduplicates(t *testing.T) {
	tempDir := t.TempDir()
	shared := writePromptFile(t, tempDir, "shared.md", "shared")

	config := &Config{
		AI: AIConfig{
			Prompts:  PromptConfig{SystemFile: shared},
			Tone:     OperationAIConfig{Prompts: PromptConfig{SystemFile: shared}},
			Feedback: OperationAIConfig{Prompts: PromptConfig{UserFile: writePromptFile(t, tempDir, "fb.md", "fb")}},
		},
	}

	files := config.PromptFiles()
	if len(files) != 2 {
		t.Fatalf("Expected 2 distinct prompt files, got %d: %v", len(files), files)
	}
}

func TestGetOperationConfigFallbacks(t *testing.T) {
	toneTimeout := 15 * time.Second
	config := &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     60 * time.Second,
			APIKey:      "global-key",
			MaxRetries:  3,
			Temperature: 0.7,
			Prompts:     PromptConfig{System: "global system"},
			Tone: OperationAIConfig{
				Model:   "gemini-2.0-flash-lite",
				Timeout: &toneTimeout,
				Prompts: PromptConfig{System: "tone system"},
			},
		},
	}

	tone := config.GetToneConfig()
	if tone.Model != "gemini-2.0-flash-lite" {
		t.Errorf("Model = %s, want operation override", tone.Model)
	}
	if *tone.Timeout != toneTimeout {
		t.Errorf("Timeout = %v, want %v", *tone.Timeout, toneTimeout)
	}
	if tone.Prompts.System != "tone system" {
		t.Errorf("System prompt = %q, want operation prompt", tone.Prompts.System)
	}
	if tone.APIKey != "global-key" || tone.Provider != "gemini" {
		t.Errorf("Expected global provider and key fallback, got %s/%s", tone.Provider, tone.APIKey)
	}

	feedback := config.GetFeedbackConfig()
	if feedback.Prompts.System != "global system" {
		t.Errorf("Expected global prompt fallback, got %q", feedback.Prompts.System)
	}
	if *feedback.MaxRetries != 3 || *feedback.Temperature != 0.7 {
		t.Errorf("Expected global retries/temperature, got %d/%v", *feedback.MaxRetries, *feedback.Temperature)
	}
}
