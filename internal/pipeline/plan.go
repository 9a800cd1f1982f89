package pipeline

import (
	"fmt"
	"strings"

	"github.com/matsen/autocite/internal/reference"
	"github.com/matsen/autocite/internal/storage"
)

// Claim statuses.
const (
	StatusOK         = "OK"
	StatusNeedManual = "NEED_MANUAL"
)

// Claim is one line of a plan: a sentence that needs support and the
// candidate papers selected for it.
type Claim struct {
	SentenceID string                  `json:"sentence_id"`
	Status     string                  `json:"status"`
	ClaimType  string                  `json:"claim_type,omitempty"`
	Rationale  string                  `json:"rationale,omitempty"`
	Queries    []string                `json:"queries,omitempty"`
	Papers     []reference.PaperRecord `json:"papers,omitempty"`
	Notes      string                  `json:"notes,omitempty"`
	Keys       []string                `json:"keys,omitempty"` // set by synthesis
}

// LoadPlan reads a JSONL plan and validates every claim.
func LoadPlan(path string) ([]Claim, error) {
	claims, err := storage.ReadAll[Claim](path)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	for i := range claims {
		if err := claims[i].normalize(); err != nil {
			return nil, fmt.Errorf("plan line %d: %w", i+1, err)
		}
	}
	return claims, nil
}

func (c *Claim) normalize() error {
	c.SentenceID = strings.TrimSpace(c.SentenceID)
	if c.SentenceID == "" {
		return fmt.Errorf("missing sentence_id")
	}
	switch c.Status {
	case "":
		c.Status = StatusOK
	case StatusOK, StatusNeedManual:
	default:
		return fmt.Errorf("invalid status %q for %s", c.Status, c.SentenceID)
	}
	return nil
}
