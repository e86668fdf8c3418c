package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/model"
	"github.com/cerina/foundry-engine/internal/review"
)

const clinicalSystem = "You are a strict CBT Supervisor rating clinical protocol drafts. " +
	"Respond with a JSON object: {\"empathy_score\": 1-10, \"structure_score\": 1-10, \"feedback\": string, \"decision\": \"PASS\"|\"FAIL\"}."

// AgentNameClinicalCritic is the agent_name recorded on critic entries.
const AgentNameClinicalCritic = "ClinicalCritic"

// ClinicalCritic judges the draft for empathy and structural adherence and
// appends exactly one entry to the critique log per execution.
type ClinicalCritic struct {
	Client     model.Client
	Thresholds review.Thresholds
	Validator  *review.Validator
}

// Node returns the clinical critic's node name.
func (c *ClinicalCritic) Node() domain.Node { return domain.NodeClinicalCritic }

// Execute evaluates the draft. The verdict is PASS only when the model's own
// decision is PASS and every judged dimension meets its configured minimum.
func (c *ClinicalCritic) Execute(ctx context.Context, in Input) (Outcome, error) {
	st := in.State

	reply, err := c.Client.Complete(ctx, model.Request{
		System: clinicalSystem,
		Prompt: fmt.Sprintf("Evaluate this draft:\n%s", st.CurrentDraft),
	})
	if err != nil {
		return Outcome{}, domain.WrapEngineError(domain.ErrTransientAdapter.Code, "clinical critique", err)
	}

	var a review.ClinicalAssessment
	if err := parseStructured(reply, &a); err != nil {
		return Outcome{}, err
	}
	if err := c.Validator.ValidateClinical(a); err != nil {
		return Outcome{}, domain.WrapEngineError(domain.ErrTransientAdapter.Code, "clinical assessment rejected", err)
	}

	critique := &domain.Critique{
		SessionKey: st.SessionKey,
		AgentName:  AgentNameClinicalCritic,
		Score:      a.EmpathyScore,
		Feedback:   a.Feedback,
		Verdict:    c.Thresholds.Verdict(a),
		CreatedAt:  time.Now().Unix(),
	}
	return Outcome{State: st, Critique: critique}, nil
}
