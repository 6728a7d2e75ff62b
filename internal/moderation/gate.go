package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/getbrandflow/brandflow/internal/models"
)

type ViolationType string

const (
	ViolationToxicity        ViolationType = "toxicity"
	ViolationPII             ViolationType = "pii"
	ViolationBrandSafety     ViolationType = "brand_safety"
	ViolationMissingRequired ViolationType = "missing_required"
)

// Hard violations block publishing unconditionally; soft violations are
// advisory and overridable when no hard violation is present.
func (t ViolationType) Hard() bool {
	return t == ViolationToxicity || t == ViolationBrandSafety
}

type Violation struct {
	Type    ViolationType `json:"type"`
	Message string        `json:"message"`
	Details string        `json:"details,omitempty"`
}

type Result struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
	Score      float64     `json:"score"`
}

// Per-check scores. The arithmetic mean of the four checks is a policy
// choice, not a domain rule; tune here.
var (
	scorePass            = 1.0
	scoreHardFail        = 0.0
	scorePII             = 0.5
	scoreMissingRequired = 0.8
)

var piiPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"email", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
	{"phone", regexp.MustCompile(`\+?\d[\d\s\-().]{8,}\d`)},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"card", regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
}

type Gate struct {
	classifier Classifier
}

func NewGate(classifier Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Moderate runs the four content checks and averages their scores. Passed is
// false iff a hard violation (toxicity, brand safety) is present.
func (g *Gate) Moderate(ctx context.Context, content string, brand *models.Brand) *Result {
	var violations []Violation
	var total float64

	// toxicity — fails open on classifier outage
	toxScore := scorePass
	toxic, err := g.classifier.Classify(ctx, content)
	if err != nil {
		slog.Warn("moderation classifier unavailable, passing toxicity check", "error", err.Error())
	} else if toxic {
		toxScore = scoreHardFail
		violations = append(violations, Violation{
			Type:    ViolationToxicity,
			Message: "content flagged as toxic by moderation classifier",
		})
	}
	total += toxScore

	// pii — advisory only
	piiScore := scorePass
	if matches := detectPII(content); len(matches) > 0 {
		piiScore = scorePII
		violations = append(violations, Violation{
			Type:    ViolationPII,
			Message: "content appears to contain personal information",
			Details: strings.Join(matches, ", "),
		})
	}
	total += piiScore

	// brand safety — blocklist substring match
	safetyScore := scorePass
	if term := findBlocklisted(content, brand.StyleGuide.Blocklist); term != "" {
		safetyScore = scoreHardFail
		violations = append(violations, Violation{
			Type:    ViolationBrandSafety,
			Message: fmt.Sprintf("content contains blocklisted term %q", term),
		})
	}
	total += safetyScore

	// required keywords
	requiredScore := scorePass
	if missing := findMissingRequired(content, brand.Settings.RequiredKeywords); len(missing) > 0 {
		requiredScore = scoreMissingRequired
		violations = append(violations, Violation{
			Type:    ViolationMissingRequired,
			Message: "content is missing required keywords",
			Details: strings.Join(missing, ", "),
		})
	}
	total += requiredScore

	passed := true
	for _, v := range violations {
		if v.Type.Hard() {
			passed = false
			break
		}
	}

	return &Result{
		Passed:     passed,
		Violations: violations,
		Score:      total / 4,
	}
}

// IsSafe is a cheap toxicity-only pre-check. It fails open like Moderate.
func (g *Gate) IsSafe(ctx context.Context, content string) bool {
	toxic, err := g.classifier.Classify(ctx, content)
	if err != nil {
		slog.Warn("moderation classifier unavailable, treating content as safe", "error", err.Error())
		return true
	}
	return !toxic
}

func detectPII(content string) []string {
	var matches []string
	for _, p := range piiPatterns {
		if p.pattern.MatchString(content) {
			matches = append(matches, p.name)
		}
	}
	return matches
}

func findBlocklisted(content string, blocklist []string) string {
	lowered := strings.ToLower(content)
	for _, term := range blocklist {
		if term == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(term)) {
			return term
		}
	}
	return ""
}

func findMissingRequired(content string, required []string) []string {
	lowered := strings.ToLower(content)
	var missing []string
	for _, keyword := range required {
		if keyword == "" {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(keyword)) {
			missing = append(missing, keyword)
		}
	}
	return missing
}
