// Package triage classifies free-text support requests into a suggested
// ticket, or rejects them as inappropriate.
package triage

import (
	"context"
	"errors"
	"strings"

	"squadup/internal/featureflags"
	"squadup/internal/models"
	"squadup/internal/observability"
)

// ErrUnavailable is returned when a classifier cannot produce a verdict,
// for example when the upstream model fails or returns unparseable output.
var ErrUnavailable = errors.New("triage classifier unavailable")

// Classification is a classifier verdict. When Approved is false only Reason
// is set.
type Classification struct {
	Approved bool                  `json:"approved"`
	Reason   string                `json:"reason,omitempty"`
	Category models.TicketCategory `json:"category,omitempty"`
	Subject  string                `json:"subject,omitempty"`
	Summary  string                `json:"summary,omitempty"`
}

// Classifier turns a problem description into a Classification.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, description string) (Classification, error)
}

// Router picks the hosted classifier when it is configured and the ai_triage
// flag is on for the caller, and the rule-based one otherwise.
type Router struct {
	ai    Classifier
	rules Classifier
	flags *featureflags.Manager
}

// NewRouter returns a Router. ai may be nil.
func NewRouter(ai Classifier, flags *featureflags.Manager) *Router {
	return &Router{ai: ai, rules: NewRuleClassifier(), flags: flags}
}

// For returns the classifier to use for userID.
func (r *Router) For(userID uint) Classifier {
	if r.ai != nil && r.flags.Enabled(featureflags.AITriage, userID) {
		return r.ai
	}
	return r.rules
}

// Classify runs the selected classifier and records the outcome.
func (r *Router) Classify(ctx context.Context, userID uint, description string) (Classification, error) {
	c := r.For(userID)

	span, ctx := observability.NewSpan(ctx, "triage.Classify")
	defer span.End()

	result, err := c.Classify(ctx, description)
	switch {
	case err != nil:
		span.SetError(err)
		observability.TriageOutcomes.WithLabelValues(c.Name(), "error").Inc()
		return Classification{}, err
	case !result.Approved:
		observability.TriageOutcomes.WithLabelValues(c.Name(), "rejected").Inc()
	default:
		observability.TriageOutcomes.WithLabelValues(c.Name(), "approved").Inc()
	}
	return normalize(result), nil
}

const (
	maxSubjectLen = 120
	maxSummaryLen = 2000
)

func normalize(c Classification) Classification {
	if !c.Approved {
		return Classification{Approved: false, Reason: strings.TrimSpace(c.Reason)}
	}
	c.Reason = ""
	c.Category = models.ParseTicketCategory(strings.ToLower(strings.TrimSpace(string(c.Category))))
	c.Subject = truncate(strings.TrimSpace(c.Subject), maxSubjectLen)
	c.Summary = truncate(strings.TrimSpace(c.Summary), maxSummaryLen)
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
