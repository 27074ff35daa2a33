package redact

import (
	"regexp"
	"strings"
)

type riskRule struct {
	name  string
	regex *regexp.Regexp
}

var destructiveRules = []riskRule{
	{"rm -rf", regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r|--recursive\s+--force)\b`)},
	{"rm -r", regexp.MustCompile(`\brm\s+-[a-zA-Z]*r\b`)},
	{"drop", regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE)\b`)},
	{"truncate", regexp.MustCompile(`(?i)\bTRUNCATE\s+(TABLE\s+)?\w`)},
	{"delete from", regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`)},
	{"git force push", regexp.MustCompile(`\bgit\s+push\b.*\s(-[a-zA-Z]*f\b|--force\b)`)},
	{"git reset --hard", regexp.MustCompile(`\bgit\s+reset\s+--hard\b`)},
	{"git clean", regexp.MustCompile(`\bgit\s+clean\s+-[a-zA-Z]*[fd]`)},
	{"recursive chmod/chown", regexp.MustCompile(`\bch(mod|own)\s+-[a-zA-Z]*R\b`)},
	{"chmod 777", regexp.MustCompile(`\bchmod\s+777\b`)},
	{"device write", regexp.MustCompile(`(>\s*|\bof=)/dev/(sd|hd|nvme|vd|xvd|disk)`)},
	{"mkfs", regexp.MustCompile(`\b(mkfs|fdisk)\b`)},
	{"shutdown", regexp.MustCompile(`\b(shutdown|reboot|init\s+[06])\b`)},
	{"kill -9", regexp.MustCompile(`\b(kill\s+-9|killall|pkill)\b`)},
	{"docker prune", regexp.MustCompile(`\bdocker\s+(system\s+prune|volume\s+rm)\b`)},
	{"kubectl delete", regexp.MustCompile(`\bkubectl\s+delete\b`)},
}

// Destructive reports whether command matches a known destructive pattern
// and returns the pattern's name.
func Destructive(command string) (string, bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", false
	}
	for _, r := range destructiveRules {
		if r.regex.MatchString(command) {
			return r.name, true
		}
	}
	return "", false
}
