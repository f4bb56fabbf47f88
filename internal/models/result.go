package models

const (
	TranscriptPreviewLength = 500
	transcriptEllipsis      = "..."
)

// ProcessingResult is the terminal record of one pipeline run. It serializes
// to a flat JSON object.
type ProcessingResult struct {
	MediaID          string   `json:"media_id"`
	MediaTitle       string   `json:"media_title"`
	MediaDescription *string  `json:"media_description"`
	MediaDuration    *int     `json:"media_duration"`
	Source           Platform `json:"source"`
	Transcript       string   `json:"transcript"`
	Summary          string   `json:"summary"`
	Script           string   `json:"script"`
	Translation      *string  `json:"translation"`
	TargetLanguage   *string  `json:"target_language"`
	ProcessingTime   float64  `json:"processing_time"`
	StyleUsed        string   `json:"style_used"`
	ModelUsed        string   `json:"model_used"`
}

// TranscriptPreview cuts a transcript to the first 500 characters followed
// by "..." when it is longer than that.
func TranscriptPreview(transcript string) string {
	runes := []rune(transcript)
	if len(runes) <= TranscriptPreviewLength {
		return transcript
	}
	return string(runes[:TranscriptPreviewLength]) + transcriptEllipsis
}
