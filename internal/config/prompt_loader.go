package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptFileRef ties a prompt file to the operation and prompt kind it feeds.
type promptFileRef struct {
	Operation string // empty for the global prompts
	Kind      string // "system" or "user"
	Path      string
}

// promptFileRefs lists every configured prompt file.
func (c *Config) promptFileRefs() []promptFileRef {
	var refs []promptFileRef
	add := func(operation string, prompts PromptConfig) {
		if prompts.SystemFile != "" {
			refs = append(refs, promptFileRef{Operation: operation, Kind: "system", Path: prompts.SystemFile})
		}
		if prompts.UserFile != "" {
			refs = append(refs, promptFileRef{Operation: operation, Kind: "user", Path: prompts.UserFile})
		}
	}

	add("", c.AI.Prompts)
	for _, op := range Operations {
		section, _ := c.operationSection(op)
		add(op, section.Prompts)
	}
	return refs
}

// PromptFiles returns the absolute paths of all configured prompt files.
func (c *Config) PromptFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, ref := range c.promptFileRefs() {
		abs, err := filepath.Abs(ref.Path)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		files = append(files, abs)
	}
	return files
}

// ReloadPrompts re-reads every prompt file. On error the previously loaded
// prompts stay in place.
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}
	return c.loadPromptsFromFiles()
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	refs := c.promptFileRefs()
	staged := make(map[string]OperationLoadedPrompts)

	for _, ref := range refs {
		content, err := loadPromptFromFile(ref.Path, ref.Kind, operationLabel(ref.Operation))
		if err != nil {
			return err
		}
		prompts := staged[ref.Operation]
		if ref.Kind == "system" {
			prompts.System = content
		} else {
			prompts.User = content
		}
		staged[ref.Operation] = prompts
	}

	loadedPrompts.reset()
	for operation, prompts := range staged {
		loadedPrompts.set(operation, prompts)
	}

	if len(refs) == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", len(refs))
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, ref := range c.promptFileRefs() {
		absPath, err := filepath.Abs(ref.Path)
		if err != nil {
			validationErrors = append(validationErrors,
				fmt.Sprintf("invalid path for %s %s prompt: %s", ref.Kind, operationLabel(ref.Operation), ref.Path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors,
				fmt.Sprintf("%s %s prompt file not found: %s", ref.Kind, operationLabel(ref.Operation), absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

func operationLabel(operation string) string {
	if operation == "" {
		return "global"
	}
	return operation
}
