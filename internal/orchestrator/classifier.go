package orchestrator

import "strings"

const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// complexKeywords is a coarse keyword heuristic: requests that usually fan
// out into many files get the higher iteration ceiling. The ceiling is a
// circuit breaker for runaway tool loops, not a correctness mechanism, so a
// misclassification only changes how much headroom a turn gets.
var complexKeywords = []string{
	"full",
	"complete",
	"comprehensive",
	"entire",
	"dashboard",
	"e-commerce",
	"ecommerce",
	"landing page",
	"admin panel",
	"multi-page",
}

// ClassifyComplexity inspects the latest user message and returns the
// complexity class driving the iteration budget.
func ClassifyComplexity(message string) string {
	lowered := strings.ToLower(message)
	for _, keyword := range complexKeywords {
		if strings.Contains(lowered, keyword) {
			return ComplexityComplex
		}
	}
	return ComplexitySimple
}
