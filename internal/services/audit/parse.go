package audit

import (
	"encoding/json"
	"strings"
)

// parseVerdict extracts a verdict from raw model output. Markdown code
// fences are stripped first since the model sometimes wraps its JSON in
// them despite the instruction. Unparseable output degrades to an
// unknown rating carrying the raw text as the summary.
func parseVerdict(raw string) *Verdict {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		parts := strings.Split(cleaned, "```")
		if len(parts) > 1 {
			cleaned = parts[1]
		}
		cleaned = strings.TrimPrefix(cleaned, "json")
		cleaned = strings.TrimSpace(cleaned)
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil || verdict.Rating == "" {
		return &Verdict{
			Rating:  RatingUnknown,
			Summary: cleaned,
		}
	}

	return &verdict
}
