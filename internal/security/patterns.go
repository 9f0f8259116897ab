// Package security implements the dangerous-command interceptor: a pattern
// table classifying submitted shell text by risk, plus the tactile
// confirmation sessions (Slider/MultiButton/Hold) that gate execution.
// Grounded on tools/codex-stdout-parser's regex-driven classification
// (promptRe/ignoreRe/readyRe) for the matching shape, and on
// tools/si/internal/vault's JSONLAudit for the audit sink.
package security

import (
	"regexp"

	"silexa/brain/internal/wstate"
)

// Pattern is one dangerous-command rule.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
	Risk   wstate.Risk
	Method func(sessionSeed string) wstate.ConfirmationMethod
}

// DefaultPatterns is the built-in table, checked in this order — first match
// wins (spec §9: "the source appears to return the first match by insertion
// order"; this implementation documents and fixes that order).
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:   "rm_rf_root",
			Regexp: regexp.MustCompile(`^\s*rm\s+-rf\s+/\s*$`),
			Risk:   wstate.RiskCritical,
			Method: func(seed string) wstate.ConfirmationMethod {
				return wstate.MultiButtonMethod{Sequence: permuteLabels(seed, []string{"Confirm", "Delete", "Everything"})}
			},
		},
		{
			Name:   "rm_rf_wildcard",
			Regexp: regexp.MustCompile(`rm\s+-rf\s+(\*|~)`),
			Risk:   wstate.RiskHigh,
			Method: func(string) wstate.ConfirmationMethod { return wstate.SliderMethod{Target: 1.0} },
		},
		{
			Name:   "mkfs",
			Regexp: regexp.MustCompile(`\bmkfs(\.\w+)?\b`),
			Risk:   wstate.RiskCritical,
			Method: func(string) wstate.ConfirmationMethod { return wstate.SliderMethod{Target: 1.0} },
		},
		{
			Name:   "obfuscated_shell",
			Regexp: regexp.MustCompile(`base64\s+-d\s*\|\s*(sh|bash)\b`),
			Risk:   wstate.RiskHigh,
			Method: holdExecute,
		},
		{
			Name:   "eval_obfuscation",
			Regexp: regexp.MustCompile(`\beval\s*\$\(`),
			Risk:   wstate.RiskHigh,
			Method: holdExecute,
		},
		{
			Name:   "curl_pipe_sh",
			Regexp: regexp.MustCompile(`curl\b[^|]*\|\s*(sh|bash)\b`),
			Risk:   wstate.RiskHigh,
			Method: holdExecute,
		},
		{
			Name:   "system_reset_commands",
			Regexp: regexp.MustCompile(`^\s*(reboot|shutdown|poweroff|halt)\b`),
			Risk:   wstate.RiskHigh,
			Method: func(seed string) wstate.ConfirmationMethod {
				return wstate.MultiButtonMethod{Sequence: permuteLabels(seed, []string{"Confirm", "Proceed", "Restart"})}
			},
		},
		{
			Name:   "fork_bomb",
			Regexp: regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`),
			Risk:   wstate.RiskCritical,
			Method: func(seed string) wstate.ConfirmationMethod {
				return wstate.MultiButtonMethod{Sequence: permuteLabels(seed, []string{"I", "Understand", "Consequences"})}
			},
		},
	}
}

func holdExecute(string) wstate.ConfirmationMethod {
	return wstate.HoldMethod{Target: "EXECUTE", Duration: holdDuration}
}

// Match returns the first pattern (in table order) whose regexp matches
// text, or nil.
func Match(patterns []Pattern, text string) *Pattern {
	for i := range patterns {
		if patterns[i].Regexp.MatchString(text) {
			return &patterns[i]
		}
	}
	return nil
}
