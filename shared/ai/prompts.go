package ai

import (
	"fmt"
	"strings"

	"transcript-assistant/internal/models"
)

const DefaultStyle = "educational"

const summaryPrompt = `You are an assistant that summarizes video transcripts.

SOURCE: %s
TITLE: %s
CHANNEL: %s%s

TRANSCRIPT:
%s

Write a clear, well-organized summary of the content above. Cover the main topic,
the key points in the order they are presented, and any conclusions. Do not invent
details that are not in the transcript. Respond with the summary only.`

// styleInstructions maps a style label to the guidance placed in the script
// prompt. Labels are matched case-insensitively.
var styleInstructions = map[string]string{
	"educational": `an educational script for a lesson. Explain concepts step by step,
define any technical terms, and end with a short recap of what the audience learned.`,
	"entertaining": `an entertaining script for a lively video. Use an energetic, playful tone,
add light humor where it fits, and keep the pacing quick.`,
	"professional": `a professional script for a business presentation. Be concise and precise,
lead with the key takeaways, and keep a neutral, formal tone.`,
	"casual": `a casual script, as if talking to a friend. Use simple words, short sentences,
and a relaxed, conversational tone.`,
	"storytelling": `a narrative script that tells the content as a story, with a clear beginning,
middle and end, and a hook in the first lines.`,
}

const defaultStyleInstruction = `a clear narration script for a general audience. Keep it engaging,
accurate to the summary, and easy to follow when read aloud.`

const scriptPrompt = `You are a scriptwriter.

TITLE: %s
REQUESTED STYLE: %s

SUMMARY:
%s

Using only the information in the summary, write %s
Respond with the script only.`

const translationPrompt = `Translate the following text into %s.
Preserve the meaning, tone, and paragraph structure. Respond with the translation only.

TEXT:
%s`

var languageNames = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sv": "Swedish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// LanguageName returns the English name of an ISO 639-1 code, or the input
// unchanged when the code is unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// styleInstruction returns the template guidance for style and whether the
// style is one of the known templates.
func styleInstruction(style string) (string, bool) {
	if s, ok := styleInstructions[strings.ToLower(strings.TrimSpace(style))]; ok {
		return s, true
	}
	return defaultStyleInstruction, false
}

func buildSummaryPrompt(transcript string, md *models.Metadata, platform models.Platform, maxChars int) string {
	title, channel := "Unknown", models.UnknownChannel
	var extra strings.Builder
	if md != nil {
		title, channel = md.Title, md.Channel
		if md.Duration != nil {
			fmt.Fprintf(&extra, "\nDURATION: %d minutes", *md.Duration/60)
		}
		if md.Description != nil && *md.Description != "" {
			fmt.Fprintf(&extra, "\nDESCRIPTION: %s", truncateString(*md.Description, 300))
		}
	}
	if maxChars > 0 {
		transcript = truncateString(transcript, maxChars)
	}
	return fmt.Sprintf(summaryPrompt, platform, title, channel, extra.String(), transcript)
}

func buildScriptPrompt(summary, style string, md *models.Metadata) string {
	instruction, _ := styleInstruction(style)
	title := "Untitled"
	if md != nil && md.Title != "" {
		title = md.Title
	}
	return fmt.Sprintf(scriptPrompt, title, style, summary, instruction)
}

func buildTranslationPrompt(text, language string) string {
	return fmt.Sprintf(translationPrompt, LanguageName(language), text)
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength]) + "..."
}
