package service

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// replyEnvelope es el JSON que le pedimos al LLM.
type replyEnvelope struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
	Confidence  *float64 `json:"confidence"`
}

// parseReplyEnvelope acepta JSON limpio, JSON dentro de fences o texto plano.
func parseReplyEnvelope(raw string) (replyEnvelope, bool) {
	cleaned := stripJSONFences(raw)
	if cleaned == "" {
		return replyEnvelope{}, false
	}

	for _, candidate := range []string{firstJSONObject(cleaned), cleaned} {
		if candidate == "" {
			continue
		}
		var env replyEnvelope
		if err := json.Unmarshal([]byte(candidate), &env); err != nil {
			continue
		}
		env.Response = strings.TrimSpace(env.Response)
		if env.Response == "" {
			continue
		}
		env.Suggestions = compactStrings(env.Suggestions, 4)
		if env.Confidence != nil {
			c := clampUnit(*env.Confidence)
			env.Confidence = &c
		}
		return env, true
	}

	// Un objeto JSON sin "response" no sirve como texto para el usuario.
	if strings.HasPrefix(cleaned, "{") {
		return replyEnvelope{}, false
	}
	return replyEnvelope{Response: cleaned}, true
}

func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// firstJSONObject devuelve el primer objeto balanceado, respetando strings y escapes.
func firstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString, escaped := false, false
	depth := 0
	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

func compactStrings(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
