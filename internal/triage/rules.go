package triage

import (
	"context"
	"strings"
	"unicode"

	"squadup/internal/models"
)

// RuleClassifier is a keyword classifier used when no hosted model is
// configured.
type RuleClassifier struct {
	blocked  []string
	keywords map[models.TicketCategory][]string
}

// NewRuleClassifier returns a RuleClassifier with the built-in word lists.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		blocked: []string{"kill yourself", "kys", "idiot devs", "free skins", "buy followers"},
		keywords: map[models.TicketCategory][]string{
			models.TicketCategoryAbuse:      {"harass", "toxic", "threat", "cheat", "hack", "report", "scam"},
			models.TicketCategoryAccount:    {"login", "password", "email", "account", "profile", "avatar", "sign in"},
			models.TicketCategoryTeam:       {"team", "roster", "invite", "kick", "captain", "member", "application"},
			models.TicketCategoryTournament: {"tournament", "bracket", "match", "prize", "organizer"},
			models.TicketCategoryBug:        {"bug", "crash", "error", "broken", "doesn't work", "does not work", "glitch"},
		},
	}
}

var categoryOrder = []models.TicketCategory{
	models.TicketCategoryAbuse,
	models.TicketCategoryAccount,
	models.TicketCategoryTeam,
	models.TicketCategoryTournament,
	models.TicketCategoryBug,
}

func (r *RuleClassifier) Name() string { return "rules" }

func (r *RuleClassifier) Classify(_ context.Context, description string) (Classification, error) {
	text := strings.TrimSpace(description)
	lower := strings.ToLower(text)

	for _, phrase := range r.blocked {
		if containsWord(lower, phrase) {
			return Classification{Reason: "Your message contains content we can't forward to staff. Please describe the problem respectfully."}, nil
		}
	}
	if !hasLetters(text) {
		return Classification{Reason: "Please describe the problem in words."}, nil
	}

	category := models.TicketCategoryOther
	best := 0
	for _, c := range categoryOrder {
		hits := 0
		for _, kw := range r.keywords[c] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > best {
			best, category = hits, c
		}
	}

	return Classification{
		Approved: true,
		Category: category,
		Subject:  firstSentence(text),
		Summary:  text,
	}, nil
}

func containsWord(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	for idx >= 0 {
		end := idx + len(phrase)
		before := idx == 0 || !isWordByte(text[idx-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], phrase)
		if next < 0 {
			return false
		}
		idx += next + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z'
}

func hasLetters(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n >= 3
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?\n"); i > 0 {
		s = s[:i]
	}
	return truncate(strings.TrimSpace(s), 80)
}
