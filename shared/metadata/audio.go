package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"transcript-assistant/internal/models"
)

const localFileChannel = "Local File"

// AudioFileExtractor describes a local media file from its path.
type AudioFileExtractor struct{}

func (AudioFileExtractor) Extract(ctx context.Context, path string) (*models.Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	return &models.Metadata{
		Title:      strings.TrimSuffix(name, filepath.Ext(name)),
		Channel:    localFileChannel,
		UploadDate: info.ModTime().Format("20060102"),
	}, nil
}
