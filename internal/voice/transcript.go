package voice

import (
	"regexp"
	"strings"
)

// Name introduction patterns, tried in order of confidence.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:my name is) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:my name is) ([A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:I'm) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:I am) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:this is) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:this is) ([A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:call me) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:call me) ([A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:speaking with) ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`(?i:speaking with) ([A-Z][a-z]+)`),
}

var greetingPattern = regexp.MustCompile(`(?i:hi|hello|hey|this is)[,.\s]+([A-Z][a-z]+(?: [A-Z][a-z]+)?)`)

// ExtractCallerName pulls a likely caller name out of a call transcription.
// Returns "" when no introduction is found. Best effort only.
func ExtractCallerName(transcription string) string {
	if transcription == "" {
		return ""
	}

	for _, pattern := range namePatterns {
		if m := pattern.FindStringSubmatch(transcription); len(m) > 1 {
			return m[1]
		}
	}

	// Fall back to greeting-shaped lines near the start of the call.
	lines := strings.Split(transcription, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		if m := greetingPattern.FindStringSubmatch(line); len(m) > 1 {
			return m[1]
		}
	}

	return ""
}
