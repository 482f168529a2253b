// ABOUTME: Remembers image files recently attached to projects
// ABOUTME: Stored next to the identity key in the CLI configuration directory

package recentfiles

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// MaxRecentFiles bounds the remembered list.
const MaxRecentFiles = 10

const fileName = "recent-images.json"

// RecentFiles is the most-recent-first list of image paths.
type RecentFiles struct {
	configDir string
	files     []string
}

type recentData struct {
	Files []string `json:"files"`
}

// New creates a list stored in configDir.
func New(configDir string) *RecentFiles {
	return &RecentFiles{configDir: configDir}
}

func (rf *RecentFiles) path() string {
	return filepath.Join(rf.configDir, fileName)
}

// Load reads the list, dropping files that no longer exist. A missing or
// unreadable list starts empty.
func (rf *RecentFiles) Load() ([]string, error) {
	data, err := os.ReadFile(rf.path())
	if errors.Is(err, fs.ErrNotExist) {
		rf.files = []string{}
		return rf.files, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		rf.files = []string{}
		return rf.files, nil
	}

	rf.files = make([]string, 0, len(recent.Files))
	for _, p := range recent.Files {
		if _, err := os.Stat(p); err == nil {
			rf.files = append(rf.files, p)
		}
	}
	return rf.files, nil
}

// Save writes files, trimmed to MaxRecentFiles.
func (rf *RecentFiles) Save(files []string) error {
	if err := os.MkdirAll(rf.configDir, 0700); err != nil {
		return err
	}
	if len(files) > MaxRecentFiles {
		files = files[:MaxRecentFiles]
	}
	rf.files = files

	data, err := json.MarshalIndent(recentData{Files: files}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(rf.path(), data, 0600)
}

// Add moves path to the front of the list.
func (rf *RecentFiles) Add(path string) error {
	if rf.files == nil {
		if _, err := rf.Load(); err != nil {
			rf.files = []string{}
		}
	}
	next := make([]string, 0, len(rf.files)+1)
	next = append(next, path)
	for _, f := range rf.files {
		if f != path {
			next = append(next, f)
		}
	}
	return rf.Save(next)
}

// List returns the current list, loading it on first use.
func (rf *RecentFiles) List() []string {
	if rf.files == nil {
		rf.Load()
	}
	return rf.files
}
