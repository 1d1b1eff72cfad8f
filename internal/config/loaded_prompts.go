package config

import (
	"sync"
)

// OperationLoadedPrompts holds prompt file contents for one operation
type OperationLoadedPrompts struct {
	System string
	User   string
}

// promptRegistry holds prompt file contents; the prompt watcher replaces
// entries while requests read them.
type promptRegistry struct {
	mu     sync.RWMutex
	global OperationLoadedPrompts
	ops    map[string]OperationLoadedPrompts
}

var loadedPrompts = &promptRegistry{ops: make(map[string]OperationLoadedPrompts)}

func (r *promptRegistry) set(operation string, prompts OperationLoadedPrompts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if operation == "" {
		r.global = prompts
		return
	}
	r.ops[operation] = prompts
}

func (r *promptRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = OperationLoadedPrompts{}
	r.ops = make(map[string]OperationLoadedPrompts)
}

// GetPromptsForOperation returns a copy of the file-loaded prompts for an
// operation, falling back to the global prompt files per field.
func GetPromptsForOperation(operation string) OperationLoadedPrompts {
	loadedPrompts.mu.RLock()
	defer loadedPrompts.mu.RUnlock()

	result := loadedPrompts.ops[operation]
	if result.System == "" {
		result.System = loadedPrompts.global.System
	}
	if result.User == "" {
		result.User = loadedPrompts.global.User
	}
	return result
}
