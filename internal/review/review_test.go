package review

import (
	"testing"

	"github.com/cerina/foundry-engine/internal/domain"
)

func TestValidateClinical(t *testing.T) {
	v := &Validator{}

	tests := []struct {
		name    string
		a       ClinicalAssessment
		wantErr bool
	}{
		{"valid pass", ClinicalAssessment{EmpathyScore: 8, StructureScore: 9, Decision: "PASS"}, false},
		{"valid fail", ClinicalAssessment{EmpathyScore: 3, StructureScore: 5, Feedback: "cold tone", Decision: "FAIL"}, false},
		{"empathy too low", ClinicalAssessment{EmpathyScore: 0, StructureScore: 5, Decision: "PASS"}, true},
		{"empathy too high", ClinicalAssessment{EmpathyScore: 11, StructureScore: 5, Decision: "PASS"}, true},
		{"structure out of range", ClinicalAssessment{EmpathyScore: 5, StructureScore: 0, Decision: "FAIL"}, true},
		{"bad decision", ClinicalAssessment{EmpathyScore: 5, StructureScore: 5, Decision: "MAYBE"}, true},
		{"empty decision", ClinicalAssessment{EmpathyScore: 5, StructureScore: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateClinical(tt.a)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClinical() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && domain.CodeOf(err) != domain.ErrAssessmentInvalid.Code {
				t.Errorf("error code = %d, want %d", domain.CodeOf(err), domain.ErrAssessmentInvalid.Code)
			}
		})
	}
}

func TestValidateSafety(t *testing.T) {
	v := &Validator{}

	safe := SafetyAssessment{IsSafe: true}
	if err := v.ValidateSafety(safe); err != nil {
		t.Errorf("safe assessment should validate, got %v", err)
	}

	unsafeNoReason := SafetyAssessment{IsSafe: false}
	if err := v.ValidateSafety(unsafeNoReason); err == nil {
		t.Error("unsafe assessment without reasoning should fail validation")
	}

	unsafeWithReason := SafetyAssessment{IsSafe: false, Reasoning: "encourages risky behavior"}
	if err := v.ValidateSafety(unsafeWithReason); err != nil {
		t.Errorf("unsafe assessment with reasoning should validate, got %v", err)
	}
}

func TestThresholds_Verdict(t *testing.T) {
	th := Thresholds{MinEmpathy: 7, MinStructure: 7}

	tests := []struct {
		name string
		a    ClinicalAssessment
		want domain.Verdict
	}{
		{"pass at minimums", ClinicalAssessment{EmpathyScore: 7, StructureScore: 7, Decision: "PASS"}, domain.VerdictPass},
		{"pass above minimums", ClinicalAssessment{EmpathyScore: 9, StructureScore: 10, Decision: "PASS"}, domain.VerdictPass},
		{"model says fail", ClinicalAssessment{EmpathyScore: 9, StructureScore: 9, Decision: "FAIL"}, domain.VerdictFail},
		{"empathy below minimum", ClinicalAssessment{EmpathyScore: 6, StructureScore: 9, Decision: "PASS"}, domain.VerdictFail},
		{"structure below minimum", ClinicalAssessment{EmpathyScore: 9, StructureScore: 6, Decision: "PASS"}, domain.VerdictFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Verdict(tt.a); got != tt.want {
				t.Errorf("Verdict() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainsCrisisLanguage(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I want to hurt myself", true},
		{"thoughts of suicide", true},
		{"suicidal ideation", true},
		{"this is an emergency", true},
		{"they are in danger", true},
		{"KILL", true},
		{"help me sleep better", false},
		{"manage my anxiety at work", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsCrisisLanguage(tt.text); got != tt.want {
			t.Errorf("ContainsCrisisLanguage(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFlagsCrisis(t *testing.T) {
	tests := []struct {
		name string
		a    SafetyAssessment
		want bool
	}{
		{"explicit escalate flag", SafetyAssessment{IsSafe: false, Escalate: true, Reasoning: "x"}, true},
		{"safe never escalates", SafetyAssessment{IsSafe: true}, false},
		{"unsafe with crisis category", SafetyAssessment{IsSafe: false, HarmCategory: "self-harm", Reasoning: "mentions self harm"}, true},
		{"unsafe with crisis reasoning", SafetyAssessment{IsSafe: false, Reasoning: "references suicide methods"}, true},
		{"unsafe but ordinary", SafetyAssessment{IsSafe: false, HarmCategory: "misinformation", Reasoning: "cites unproven technique"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlagsCrisis(tt.a); got != tt.want {
				t.Errorf("FlagsCrisis() = %v, want %v", got, tt.want)
			}
		})
	}
}
