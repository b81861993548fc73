package service

import "testing"

func TestParseReplyEnvelope(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		ok         bool
		response   string
		confidence float64
		hasConf    bool
		suggested  int
	}{
		{name: "plain json", raw: `{"response":"Hola","confidence":0.8,"suggestions":["a","b"]}`, ok: true, response: "Hola", confidence: 0.8, hasConf: true, suggested: 2},
		{name: "fenced", raw: "```json\n{\"response\":\"Fenced\"}\n```", ok: true, response: "Fenced"},
		{name: "prefixed text", raw: `Sure! {"response":"Inside {braces}","suggestions":["x","x"," "]}`, ok: true, response: "Inside {braces}", suggested: 1},
		{name: "clamped confidence", raw: `{"response":"r","confidence":3}`, ok: true, response: "r", confidence: 1, hasConf: true},
		{name: "plain text", raw: "Just text", ok: true, response: "Just text"},
		{name: "json without response", raw: `{"answer":"nope"}`, ok: false},
		{name: "empty", raw: "   ", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, ok := parseReplyEnvelope(tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%+v)", tc.ok, ok, env)
			}
			if !ok {
				return
			}
			if env.Response != tc.response {
				t.Fatalf("expected response %q, got %q", tc.response, env.Response)
			}
			if tc.hasConf {
				if env.Confidence == nil || *env.Confidence != tc.confidence {
					t.Fatalf("expected confidence %v, got %v", tc.confidence, env.Confidence)
				}
			} else if env.Confidence != nil {
				t.Fatalf("expected no confidence, got %v", *env.Confidence)
			}
			if len(env.Suggestions) != tc.suggested {
				t.Fatalf("expected %d suggestions, got %v", tc.suggested, env.Suggestions)
			}
		})
	}
}
