package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/querylab/vectorrank/pkg/logger"
)

// defaultExtensions are the file types the directory source picks up
// when the config lists none.
var defaultExtensions = []string{".txt", ".md", ".html", ".htm"}

// Directory loads every matching file under a root directory as one
// document. HTML files have their markup stripped; everything else is
// read verbatim.
type Directory struct {
	root       string
	extensions map[string]bool
	logger     *slog.Logger
}

// NewDirectory creates a directory source rooted at dir.
func NewDirectory(dir string, extensions []string) (*Directory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}

	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}

	return &Directory{
		root:       dir,
		extensions: exts,
		logger:     logger.WithComponent("directory-source"),
	}, nil
}

func (d *Directory) Name() string { return "directory:" + d.root }

// Load walks the root and reads every matching file. Documents come back
// sorted by relative path, so repeated loads over unchanged files are
// identical.
func (d *Directory) Load(ctx context.Context) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != d.root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus directory: %w", err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := d.read(path)
		if err != nil {
			d.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	d.logger.Info("corpus loaded", "documents", len(docs), "root", d.root)
	return docs, nil
}

func (d *Directory) matches(path string) bool {
	return d.extensions[strings.ToLower(filepath.Ext(path))]
}

// read builds a Document from one file. The relative path is the id; the
// title comes from the HTML <title> or falls back to the file name.
func (d *Directory) read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}

	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		rel = path
	}

	content := string(data)
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		if t := htmlTitle(content); t != "" {
			title = t
		}
		content = extractHTML(content)
	}

	return Document{ID: filepath.ToSlash(rel), Title: title, Body: content}, nil
}

// Watch reports filesystem changes under the root until ctx is
// cancelled. Events for matching files are coalesced per debounce
// window and delivered as a single onChange call. Newly created
// subdirectories are added to the watch.
func (d *Directory) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != d.root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watching corpus directory: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	var mu sync.Mutex
	dirty := false
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	d.logger.Info("watching corpus directory", "root", d.root, "debounce", debounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					mu.Lock()
					dirty = true
					mu.Unlock()
					continue
				}
			}
			if !d.matches(event.Name) {
				continue
			}
			mu.Lock()
			dirty = true
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watch error", "error", err)
		case <-ticker.C:
			mu.Lock()
			fire := dirty
			dirty = false
			mu.Unlock()
			if fire {
				d.logger.Debug("corpus change detected")
				onChange()
			}
		}
	}
}
