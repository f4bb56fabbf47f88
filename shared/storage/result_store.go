package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"transcript-assistant/shared/logging"
)

const (
	resultFilePrefix = "api_result_"
	resultFileSuffix = ".json"
	timestampLayout  = "20060102_150405"
)

var unsafeNameChars = regexp.MustCompile(`[^\w.-]+`)

// ResultStore persists processing results as JSON files in one directory and
// removes files older than maxAge on Prune.
type ResultStore struct {
	dir    string
	maxAge time.Duration
	mu     sync.Mutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewResultStore creates dir if needed. A zero maxAge keeps files forever.
func NewResultStore(dir string, maxAge time.Duration) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ResultStore{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
		logger: logging.WithComponent("storage"),
	}, nil
}

func (s *ResultStore) Dir() string {
	return s.dir
}

// Save writes v as indented JSON to api_result_<mediaID>_<timestamp>.json and
// returns the file path.
func (s *ResultStore) Save(mediaID string, v any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%s%s_%s%s", resultFilePrefix, safeName(mediaID), s.now().Format(timestampLayout), resultFileSuffix)
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	s.logger.Info().Str("media_id", mediaID).Str("file", path).Msg("result saved")
	return path, nil
}

// Prune deletes result files last modified before now-maxAge and returns
// how many were removed.
func (s *ResultStore) Prune() (int, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.resultFiles()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				s.logger.Warn().Err(err).Str("file", path).Msg("failed to remove expired result")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("expired results pruned")
	}
	return removed, nil
}

// Count returns the number of stored result files.
func (s *ResultStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.resultFiles()
	return len(files), err
}

func (s *ResultStore) resultFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, resultFilePrefix+"*"+resultFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return files, nil
}

// safeName keeps media ids such as local file paths from escaping the
// output directory.
func safeName(id string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(id), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "media"
	}
	return name
}
