package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"interviewcoach/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a set of files and invokes a callback, debounced, when
// any of them changes. Directories are watched too so atomic rename-into-place
// writes are seen.
type FileWatcher struct {
	mu sync.Mutex

	name  string
	files []string

	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	onChange func()
	logger   *errors.Logger

	running bool
}

// NewFileWatcher creates a watcher for files. name labels log lines.
func NewFileWatcher(name string, files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *FileWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	var cleaned []string
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		if !slices.Contains(cleaned, f) {
			cleaned = append(cleaned, f)
		}
	}

	return &FileWatcher{
		name:          name,
		files:         cleaned,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching. Watching an empty file set is a no-op.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("%s watcher is already running", fw.name)
	}
	if len(fw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	for _, file := range fw.files {
		if stat, err := os.Stat(file); err == nil {
			fw.lastModTime[file] = stat.ModTime()
		}
		if err := fw.addFile(file); err != nil {
			fw.logger.Warn("Failed to watch file", "watcher", fw.name, "file", file, "error", err)
		}
	}

	fw.stopChan = make(chan struct{})
	fw.done = make(chan struct{})
	fw.running = true
	go fw.watchLoop(fw.stopChan, fw.done)

	fw.logger.Info("File watcher started", "watcher", fw.name, "files", fw.files, "debounce_delay", fw.debounceDelay)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	close(fw.stopChan)
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	err := fw.fsWatcher.Close()
	fw.running = false
	done := fw.done
	fw.mu.Unlock()

	<-done
	fw.logger.Info("File watcher stopped", "watcher", fw.name)
	return err
}

// IsRunning returns whether the watcher is currently running
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

// Files returns the watched files
func (fw *FileWatcher) Files() []string {
	return slices.Clone(fw.files)
}

func (fw *FileWatcher) addFile(file string) error {
	dir := filepath.Dir(file)
	if err := fw.fsWatcher.Add(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to watch file %s: %w", file, err)
	}
	if err := fw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	return nil
}

func (fw *FileWatcher) watchLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if fw.isWatchedEvent(event) {
				fw.scheduleReload()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			fw.logger.LogError(err, "File watcher error", "watcher", fw.name)

		case <-fw.reloadChan:
			if fw.anyFileChanged() {
				fw.logger.Info("Watched files changed, reloading", "watcher", fw.name)
				fw.onChange()
			}

		case <-stop:
			return
		}
	}
}

func (fw *FileWatcher) isWatchedEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, file := range fw.files {
		if name == file || filepath.Base(name) == filepath.Base(file) {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) anyFileChanged() bool {
	changed := false
	for _, file := range fw.files {
		stat, err := os.Stat(file)
		if err != nil {
			if _, known := fw.lastModTime[file]; known && os.IsNotExist(err) {
				delete(fw.lastModTime, file)
				changed = true
			}
			continue
		}
		if last, known := fw.lastModTime[file]; !known || !stat.ModTime().Equal(last) {
			fw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}

func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.reloadChan <- struct{}{}:
		default:
		}
	})
}
