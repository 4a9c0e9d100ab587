package ai

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseAnalysis interprets a provider response. Models are asked for
// bare JSON but routinely wrap it in markdown fences or preamble; the
// parser strips fences, then probes for the expected object. Anything
// unparseable becomes the analysis text verbatim so a sloppy response
// is still saved.
func ParseAnalysis(text string) Analysis {
	body := stripFences(strings.TrimSpace(text))

	if gjson.Valid(body) {
		doc := gjson.Parse(body)
		if doc.IsObject() && doc.Get("analysis").Exists() {
			a := Analysis{Analysis: strings.TrimSpace(doc.Get("analysis").String())}
			for _, s := range doc.Get("suggestions").Array() {
				if v := strings.TrimSpace(s.String()); v != "" {
					a.Suggestions = append(a.Suggestions, v)
				}
			}
			return a
		}
	}

	return Analysis{Analysis: body}
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}
