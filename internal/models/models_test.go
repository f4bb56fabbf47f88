package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptPreview(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", ""},
		{"Short", "hello world", "hello world"},
		{"Exactly limit", strings.Repeat("a", 500), strings.Repeat("a", 500)},
		{"Over limit", strings.Repeat("a", 501), strings.Repeat("a", 500) + "..."},
		{"Multibyte", strings.Repeat("é", 600), strings.Repeat("é", 500) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TranscriptPreview(tt.input))
		})
	}
}

func TestDegradedMetadata(t *testing.T) {
	md := DegradedMetadata("dQw4w9WgXcQ", errors.New("HTTP 429"))
	assert.Equal(t, "Video dQw4w9WgXcQ", md.Title)
	assert.Equal(t, UnknownChannel, md.Channel)
	assert.Equal(t, "HTTP 429", md.Error)
	assert.True(t, md.Degraded())

	assert.Equal(t, "metadata unavailable", DegradedMetadata("x", nil).Error)
	assert.False(t, (&Metadata{Title: "ok"}).Degraded())
}

func TestDegradedMetadataJSONKeepsNulls(t *testing.T) {
	data, err := json.Marshal(DegradedMetadata("abc", errors.New("boom")))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "description")
	assert.Nil(t, decoded["description"])
	assert.Contains(t, decoded, "duration")
	assert.Nil(t, decoded["duration"])
	assert.NotContains(t, decoded, "tags")
}

func TestProcessingResultJSON(t *testing.T) {
	data, err := json.Marshal(ProcessingResult{MediaID: "abc", Source: PlatformYouTube, ProcessingTime: 1.5})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "youtube", decoded["source"])
	assert.Equal(t, 1.5, decoded["processing_time"])
	assert.Contains(t, decoded, "translation")
	assert.Nil(t, decoded["translation"])
	assert.Contains(t, decoded, "target_language")
	assert.Nil(t, decoded["target_language"])
}

func TestMediaReferenceString(t *testing.T) {
	assert.Equal(t, "vimeo:42", MediaReference{Platform: PlatformVimeo, ID: "42"}.String())
}
