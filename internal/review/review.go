// Package review defines the structured assessment schemas produced by the
// reviewing agents and the rules that turn them into verdicts.
package review

import (
	"fmt"
	"strings"

	"github.com/cerina/foundry-engine/internal/domain"
)

// SafetyAssessment is the safety guardian's structured output.
type SafetyAssessment struct {
	IsSafe       bool   `json:"is_safe"`
	Escalate     bool   `json:"escalate"`
	HarmCategory string `json:"harm_category"`
	Reasoning    string `json:"reasoning"`
}

// ClinicalAssessment is the clinical critic's structured output.
type ClinicalAssessment struct {
	EmpathyScore   int    `json:"empathy_score"`
	StructureScore int    `json:"structure_score"`
	Feedback       string `json:"feedback"`
	Decision       string `json:"decision"`
}

// Validator checks assessments against the review schema.
type Validator struct{}

var validDecisions = map[string]bool{
	string(domain.VerdictPass): true,
	string(domain.VerdictFail): true,
}

// ValidateClinical checks all fields of a clinical assessment and returns an
// error listing all violations if any are found.
func (v *Validator) ValidateClinical(a ClinicalAssessment) error {
	var violations []string

	type scoreEntry struct {
		name  string
		value int
	}
	scores := []scoreEntry{
		{"empathy_score", a.EmpathyScore},
		{"structure_score", a.StructureScore},
	}
	for _, s := range scores {
		if s.value < 1 || s.value > 10 {
			violations = append(violations, fmt.Sprintf("%s %d out of range [1, 10]", s.name, s.value))
		}
	}
	if !validDecisions[a.Decision] {
		violations = append(violations, fmt.Sprintf("decision %q is not valid; must be PASS or FAIL", a.Decision))
	}

	if len(violations) > 0 {
		msg := strings.Join(violations, "; ")
		return domain.NewEngineError(domain.ErrAssessmentInvalid.Code, msg)
	}
	return nil
}

// ValidateSafety checks a safety assessment. Unsafe findings must carry a
// reasoning so the critique trail stays auditable.
func (v *Validator) ValidateSafety(a SafetyAssessment) error {
	if !a.IsSafe && strings.TrimSpace(a.Reasoning) == "" {
		return domain.NewEngineError(domain.ErrAssessmentInvalid.Code, "unsafe assessment requires reasoning")
	}
	return nil
}

// Thresholds sets the minimum acceptable score per judged dimension.
type Thresholds struct {
	MinEmpathy   int
	MinStructure int
}

// Verdict applies the thresholds: PASS only if the critic itself passed the
// draft and every judged dimension meets its minimum.
func (t Thresholds) Verdict(a ClinicalAssessment) domain.Verdict {
	if a.Decision != string(domain.VerdictPass) {
		return domain.VerdictFail
	}
	if a.EmpathyScore < t.MinEmpathy || a.StructureScore < t.MinStructure {
		return domain.VerdictFail
	}
	return domain.VerdictPass
}

// crisisKeywords mark findings that must bypass normal review entirely.
var crisisKeywords = []string{
	"harm", "suicid", "kill", "death", "emergency", "danger", "hurt",
}

// ContainsCrisisLanguage reports whether the text mentions any crisis marker.
func ContainsCrisisLanguage(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FlagsCrisis classifies a safety assessment as crisis-grade. A failed
// assessment whose category or reasoning uses crisis language escalates even
// when the model did not set the escalate flag itself.
func FlagsCrisis(a SafetyAssessment) bool {
	if a.Escalate {
		return true
	}
	if a.IsSafe {
		return false
	}
	return ContainsCrisisLanguage(a.HarmCategory + " " + a.Reasoning)
}
