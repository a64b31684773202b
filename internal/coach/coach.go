// Package coach runs the LLM agents behind the supplement coaching flows:
// weekly plan generation, formula design, and formula review. Every agent
// routes model output through the lenient parser and the domain normalizers
// before anything is stored or shown to a user.
package coach

import (
	"encoding/json"

	"supplement-coach/internal/llm"
	"supplement-coach/internal/monograph"
	"supplement-coach/internal/shared"
)

// retrievalLimit is how many monographs are pulled in as formulator context.
const retrievalLimit = 5

// Coach wires the agents to their model clients and the knowledge base.
type Coach struct {
	textGen    llm.TextGenerator
	embedGen   llm.EmbeddingGenerator
	vectors    *llm.VectorRepository
	monographs *monograph.Repository
}

// New creates a Coach. The vector repository and monograph repository may be
// nil, in which case the formulator runs without retrieval context.
func New(
	textGen llm.TextGenerator,
	embedGen llm.EmbeddingGenerator,
	vectors *llm.VectorRepository,
	monographs *monograph.Repository,
) *Coach {
	return &Coach{
		textGen:    textGen,
		embedGen:   embedGen,
		vectors:    vectors,
		monographs: monographs,
	}
}

// newMeta builds agent metadata for a model response, flagging runs whose
// output only parsed after repair.
func newMeta(agentName string, usage shared.TokenUsage, content string) shared.AgentMeta {
	return shared.AgentMeta{
		AgentName: agentName,
		Usage:     usage,
		Repaired:  !json.Valid([]byte(content)),
	}
}
