// Package logdir enumerates captured raw logs with per-file statistics.
package logdir

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Summary holds lightweight information about one captured raw log.
type Summary struct {
	Path            string    `json:"path"`
	Name            string    `json:"name"`
	Lines           int       `json:"lines"`
	Events          int       `json:"events"`
	RawLines        int       `json:"raw_lines"`
	CompletionFound bool      `json:"completion_found"`
	Size            int64     `json:"size"`
	ModTime         time.Time `json:"mod_time"`
}

// ListOptions controls how raw logs are enumerated.
type ListOptions struct {
	Root     string
	Sentinel string // marks CompletionFound when non-empty
	Limit    int
}

// ListResult contains log summaries and non-fatal warnings.
type ListResult struct {
	Summaries []Summary
	Warnings  []error
}

// List enumerates raw logs under Root, newest first. Unreadable files are
// reported as warnings, not failures.
func List(opts ListOptions) (ListResult, error) {
	if opts.Root == "" {
		return ListResult{}, errors.New("root directory is required")
	}

	var result ListResult
	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}
		if d.IsDir() || !isLogName(d.Name()) {
			return nil
		}

		summary, err := Stat(path, opts.Sentinel)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("stat log %s: %w", path, err))
			return nil
		}
		result.Summaries = append(result.Summaries, summary)
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].ModTime.After(result.Summaries[j].ModTime)
	})
	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}

	return result, nil
}

// Stat scans one raw log and counts decoded events versus raw text lines.
func Stat(path, sentinel string) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open log: %w", err)
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		return Summary{}, fmt.Errorf("stat log: %w", err)
	}

	summary := Summary{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	scanner := bufio.NewScanner(file)
	const maxCapacity = 8 * 1024 * 1024
	scanner.Buffer(make([]byte, 1024), maxCapacity)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		summary.Lines++
		var envelope map[string]json.RawMessage
		if json.Unmarshal(line, &envelope) == nil {
			summary.Events++
		} else {
			summary.RawLines++
		}
		if sentinel != "" && strings.Contains(string(line), sentinel) {
			summary.CompletionFound = true
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan log: %w", err)
	}

	return summary, nil
}

func isLogName(name string) bool {
	return strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".log")
}
