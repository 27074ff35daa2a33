// Package redact masks credentials and flags destructive commands in text
// shown on screen, such as shell history.
package redact

import "regexp"

// Rule replaces every match of Regex with Replacement. Replacement may use
// regexp group references.
type Rule struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

var secretRules = []Rule{
	{"aws access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[AWS_ACCESS_KEY]"},
	{"aws secret key", regexp.MustCompile(`(?i)(aws_secret_access_key|secret_access_key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "[JWT]"},
	{"slack token", regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]+`), "[SLACK_TOKEN]"},
	{"pem block", regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`), "[PEM_BLOCK]"},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`), "[GITHUB_TOKEN]"},
	{"private key", regexp.MustCompile(`(?i)(private[_-]?key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
	{"bearer", regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_.-]{20,}`), "Bearer [REDACTED]"},
	{"basic auth", regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]{20,}`), "Basic [REDACTED]"},
	{"url credentials", regexp.MustCompile(`(://[^/\s:@]+):[^/\s@]+@`), "$1:[REDACTED]@"},
	{"assignment", regexp.MustCompile(`(?i)(password|passwd|token|secret|api_key)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
}

// SecretRules returns a copy of the built-in credential rules.
func SecretRules() []Rule {
	return append([]Rule(nil), secretRules...)
}

// Redactor masks credentials in text.
type Redactor struct {
	rules []Rule
}

// New returns a Redactor with the built-in rules.
func New() *Redactor {
	return &Redactor{rules: secretRules}
}

// NewWithRules returns a Redactor that applies rules in order.
func NewWithRules(rules []Rule) *Redactor {
	return &Redactor{rules: rules}
}

// Redact returns s with every credential masked, and whether anything was.
func (r *Redactor) Redact(s string) (string, bool) {
	if s == "" {
		return s, false
	}
	out := s
	for _, rule := range r.rules {
		out = rule.Regex.ReplaceAllString(out, rule.Replacement)
	}
	return out, out != s
}
