// Package storage keeps a local history of finished runs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"surge/internal/job"
)

// MaxHistory bounds the number of runs kept, newest first.
const MaxHistory = 100

type HistoryItem struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Target    string      `json:"target"`
	Request   job.Request `json:"request"`
	Result    *job.Result `json:"result"`
}

type History struct {
	mu       sync.RWMutex
	filePath string
	items    []HistoryItem
}

// DefaultHistoryPath is $HOME/.surge/history.json.
func DefaultHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".surge", "history.json"), nil
}

// OpenHistory loads path, creating its directory. A missing file is an
// empty history; a corrupt one is an error.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	h := &History{filePath: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return h, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(data, &h.items); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return h, nil
}

// Record prepends a finished run and persists the history.
func (h *History) Record(target string, req job.Request, res *job.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	item := HistoryItem{
		ID:        res.RunID,
		Timestamp: time.Now().UTC(),
		Target:    target,
		Request:   req,
		Result:    res,
	}
	h.items = append([]HistoryItem{item}, h.items...)
	if len(h.items) > MaxHistory {
		h.items = h.items[:MaxHistory]
	}

	data, err := json.MarshalIndent(h.items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.filePath, data, 0644)
}

// List returns a copy, newest first.
func (h *History) List() []HistoryItem {
	h.mu.RLock()
	defer h.mu.RUnlock()

	res := make([]HistoryItem, len(h.items))
	copy(res, h.items)
	return res
}

// Get finds a run by ID or ID prefix.
func (h *History) Get(id string) (*HistoryItem, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, item := range h.items {
		if id != "" && len(id) <= len(item.ID) && item.ID[:len(id)] == id {
			return &item, true
		}
	}
	return nil, false
}
