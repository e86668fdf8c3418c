// Package agent implements the pipeline's agent adapters: the Drafter,
// Safety Guardian, Clinical Critic, and Crisis Manager.
package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cerina/foundry-engine/internal/domain"
)

// Input carries the durable context one adapter step may read.
type Input struct {
	State     domain.SessionState
	Critiques []domain.Critique
}

// Latest returns the most recent critique, or nil when the log is empty.
func (in Input) Latest() *domain.Critique {
	if len(in.Critiques) == 0 {
		return nil
	}
	return &in.Critiques[len(in.Critiques)-1]
}

// Outcome is the full effect of one adapter execution. The engine persists
// it atomically: an adapter either produces a complete outcome or an error,
// never a partial mutation.
type Outcome struct {
	State      domain.SessionState
	Critique   *domain.Critique       // appended to the log when non-nil
	Assessment *domain.RiskAssessment // recorded when non-nil
	Notify     bool                   // request an escalation alert
}

// Adapter is the common transform contract for pipeline nodes.
type Adapter interface {
	Node() domain.Node
	Execute(ctx context.Context, in Input) (Outcome, error)
}

// extractJSON strips markdown code fences and surrounding prose so a model's
// structured reply can be unmarshaled. Returns the first {...} object found.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// parseStructured unmarshals a model reply into v, tolerating code fences.
// A reply that does not parse is a transient failure: the generation call
// can be retried.
func parseStructured(reply string, v any) error {
	if err := json.Unmarshal([]byte(extractJSON(reply)), v); err != nil {
		return domain.WrapEngineError(domain.ErrTransientAdapter.Code, "parse structured reply", err)
	}
	return nil
}
