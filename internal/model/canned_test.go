package model

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cerina/foundry-engine/internal/review"
)

func TestCannedDrafter_IncludesRequest(t *testing.T) {
	c := CannedDrafter()
	out, err := c.Complete(context.Background(), Request{Prompt: "sleep protocol request"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(out, "sleep protocol request") {
		t.Errorf("draft missing request text: %q", out)
	}
}

func TestCannedSafety_Verdicts(t *testing.T) {
	c := CannedSafety()

	tests := []struct {
		name         string
		prompt       string
		wantSafe     bool
		wantEscalate bool
	}{
		{"benign content", "a structured protocol about sleep hygiene", true, false},
		{"crisis content", "I want to end my life, this is an emergency", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Complete(context.Background(), Request{Prompt: tt.prompt})
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}
			var a review.SafetyAssessment
			if err := json.Unmarshal([]byte(out), &a); err != nil {
				t.Fatalf("reply is not valid JSON: %v", err)
			}
			if a.IsSafe != tt.wantSafe {
				t.Errorf("IsSafe = %v, want %v", a.IsSafe, tt.wantSafe)
			}
			if a.Escalate != tt.wantEscalate {
				t.Errorf("Escalate = %v, want %v", a.Escalate, tt.wantEscalate)
			}
		})
	}
}

func TestCannedClinical_PassesValidation(t *testing.T) {
	c := CannedClinical()
	out, err := c.Complete(context.Background(), Request{Prompt: "any draft"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var a review.ClinicalAssessment
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if err := (&review.Validator{}).ValidateClinical(a); err != nil {
		t.Errorf("canned assessment fails validation: %v", err)
	}
}

func TestFunc_Adapts(t *testing.T) {
	f := Func(func(_ context.Context, req Request) (string, error) {
		return "echo: " + req.Prompt, nil
	})
	out, err := f.Complete(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "echo: hi" {
		t.Errorf("out = %q", out)
	}
}
