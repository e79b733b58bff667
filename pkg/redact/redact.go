// Package redact scrubs secret-shaped substrings out of tool output before
// it reaches an LLM transcript, the event stream, or telemetry (§4.7
// ToolResult.summary/data are copied into session.Messages and published
// over SSE; neither should ever carry a live credential).
//
// Grounded on the reference project's pkg/masking: CompiledPattern's
// name/regex/replacement triple and the built-in-pattern-compiled-once
// shape are carried over, stripped of the per-MCP-server custom pattern
// registry (this spec's tool registry has no such per-server config, §4.7
// "dotted-namespace handler map").
package redact

import "regexp"

// Pattern is a single compiled scrub rule.
type Pattern struct {
	Name        string
	regex       *regexp.Regexp
	replacement string
}

// builtins mirrors the reference project's built-in masking pattern set,
// narrowed to credential shapes a tool result could plausibly echo back:
// bearer tokens, AWS access keys, and generic key=value secrets.
var builtins = []Pattern{
	{Name: "bearer_token", regex: regexp.MustCompile(`(?i)bearer\s+[a-z0-9._\-]{10,}`), replacement: "bearer [REDACTED]"},
	{Name: "aws_access_key", regex: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), replacement: "[REDACTED_AWS_KEY]"},
	{Name: "generic_secret_assignment", regex: regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*['"]?[a-z0-9._\-]{8,}['"]?`), replacement: "${1}=[REDACTED]"},
}

// String applies every built-in pattern to s and returns the scrubbed
// result. Safe to call on arbitrary tool output; a string with no matches
// is returned unchanged (not copied).
func String(s string) string {
	for _, p := range builtins {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
