package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cerina/foundry-engine/internal/review"
)

// Canned clients produce deterministic output so the engine can run without
// a generation endpoint. The safety client still performs a real keyword
// scan, so escalation paths stay exercisable offline.

// CannedDrafter returns a templated protocol draft built from the prompt.
func CannedDrafter() Client {
	return named{name: "canned/drafter", fn: func(_ context.Context, req Request) (string, error) {
		return fmt.Sprintf(
			"Clinical Protocol Draft\n\nRequest: %s\n\n1. Psychoeducation and goal setting.\n2. Identify automatic thoughts.\n3. Challenge and reframe.\n4. Behavioral experiment.\n5. Review and relapse prevention.",
			req.Prompt), nil
	}}
}

// CannedSafety scans the prompt for crisis language and answers with a
// structured safety assessment.
func CannedSafety() Client {
	return named{name: "canned/safety", fn: func(_ context.Context, req Request) (string, error) {
		a := review.SafetyAssessment{
			IsSafe:    true,
			Reasoning: "No harmful content detected.",
		}
		if review.ContainsCrisisLanguage(req.Prompt) {
			a = review.SafetyAssessment{
				IsSafe:       false,
				Escalate:     true,
				HarmCategory: "self-harm",
				Reasoning:    "Content contains crisis language indicating potential harm.",
			}
		}
		out, err := json.Marshal(a)
		return string(out), err
	}}
}

// CannedClinical always passes the draft with solid scores.
func CannedClinical() Client {
	return named{name: "canned/clinical", fn: func(_ context.Context, _ Request) (string, error) {
		a := review.ClinicalAssessment{
			EmpathyScore:   8,
			StructureScore: 8,
			Feedback:       "Structured and appropriately empathetic.",
			Decision:       "PASS",
		}
		out, err := json.Marshal(a)
		return string(out), err
	}}
}

type named struct {
	name string
	fn   func(ctx context.Context, req Request) (string, error)
}

func (n named) Name() string { return n.name }

func (n named) Complete(ctx context.Context, req Request) (string, error) {
	return n.fn(ctx, req)
}
