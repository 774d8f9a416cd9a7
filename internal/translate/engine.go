// Package translate is the keyword-matching explanation engine behind the
// query endpoint: it classifies a question into a concept and audience,
// then fills a fixed explanation template from a canned knowledge base.
package translate

import "strings"

// Default classifications when no keyword matches.
const (
	DefaultConcept  = "data science"
	DefaultAudience = "general"
)

// entry is one concept's canned knowledge.
type entry struct {
	definition       string
	insuranceContext string
	examples         map[string]string // audience -> example
}

var knowledge = map[string]entry{
	"r-squared": {
		definition:       "R-squared is a statistical measure that represents the proportion of the variance for a dependent variable that's explained by an independent variable.",
		insuranceContext: "In insurance pricing, R-squared helps actuaries understand how well factors like age, location, or claim history explain premium variations.",
		examples: map[string]string{
			"underwriter": "If your pricing model has an R-squared of 0.75, it means that 75% of the premium variation is explained by the factors in your model.",
			"executive":   "An R-squared of 0.8 means our pricing model captures 80% of what drives premium differences, indicating a strong predictive model.",
			"actuary":     "When comparing GLMs for pricing, the model with higher R-squared (all else being equal) is explaining more of the variance in loss ratios across segments.",
		},
	},
	"loss ratio": {
		definition:       "Loss ratio is the ratio of total losses paid out in claims plus adjustment expenses divided by the total earned premiums.",
		insuranceContext: "It's a key metric to evaluate the profitability of an insurance product or line of business.",
		examples: map[string]string{
			"underwriter": "If you're seeing a loss ratio of 85% in a particular segment, you may need to consider rate adjustments or tighter underwriting guidelines.",
			"executive":   "A loss ratio trend that increases from 60% to 70% over three quarters may signal emerging profitability challenges that require attention.",
			"actuary":     "When modeling loss ratios, we need to consider both frequency and severity trends, as well as large claim volatility and development patterns.",
		},
	},
	"predictive model": {
		definition:       "A predictive model is a statistical algorithm that uses historical data to predict future outcomes.",
		insuranceContext: "In insurance, predictive models help estimate the likelihood of claims, premium adequacy, and customer behavior.",
		examples: map[string]string{
			"underwriter": "The predictive model flagged this application with a high-risk score based on its similarity to previous policies that had high claim frequencies.",
			"executive":   "Our new customer retention predictive model has improved retention by 5% by identifying at-risk policies before renewal.",
			"actuary":     "This predictive model uses generalized linear modeling techniques with a logarithmic link function to handle the skewed distribution of claim amounts.",
		},
	},
	"data science": {
		definition:       "Data science is an interdisciplinary field that uses scientific methods, processes, algorithms and systems to extract knowledge from data.",
		insuranceContext: "In insurance, data science combines statistical modeling, machine learning, and domain expertise to improve pricing, underwriting, and claims handling.",
		examples: map[string]string{
			"underwriter": "Data science tools help you identify patterns in applications that might indicate higher risk but wouldn't be obvious from traditional underwriting guidelines.",
			"executive":   "Our data science initiatives reduced claims leakage by 12% last year by identifying patterns of potentially fraudulent claims.",
			"actuary":     "We're using data science techniques like natural language processing to extract insights from adjuster notes and improve our reserving models.",
		},
	},
}

// conceptKeywords maps concepts to their trigger phrases, checked in a
// fixed order so overlapping matches stay deterministic.
var conceptKeywords = []struct {
	concept  string
	keywords []string
}{
	{"r-squared", []string{"r-squared", "r squared", "coefficient of determination"}},
	{"loss ratio", []string{"loss ratio", "claims ratio", "incurred losses"}},
	{"predictive model", []string{"predictive model", "prediction model", "machine learning", "ml model", "model"}},
}

var audienceKeywords = []struct {
	audience string
	keywords []string
}{
	{"underwriter", []string{"underwriter", "underwriting"}},
	{"actuary", []string{"actuary", "actuarial", "actuaries"}},
	{"executive", []string{"executive", "ceo", "manager", "leadership"}},
}

// Extract classifies a query into a concept and an audience by
// case-insensitive keyword matching, falling back to the defaults.
func Extract(query string) (concept, audience string) {
	lower := strings.ToLower(query)

	concept = DefaultConcept
	for _, ck := range conceptKeywords {
		if containsAny(lower, ck.keywords) {
			concept = ck.concept
			break
		}
	}

	audience = DefaultAudience
	for _, ak := range audienceKeywords {
		if containsAny(lower, ak.keywords) {
			audience = ak.audience
			break
		}
	}
	return concept, audience
}

// Respond renders the canned explanation for a concept/audience pair.
func Respond(concept, audience string) string {
	e, ok := knowledge[concept]
	if !ok {
		e = knowledge[DefaultConcept]
	}

	example := e.examples[audience]
	if example == "" {
		// General audience reuses the insurance context line.
		example = e.insuranceContext
	}

	var b strings.Builder
	b.WriteString(e.definition)
	b.WriteString("\n\nIn the insurance industry: ")
	b.WriteString(e.insuranceContext)
	b.WriteString("\n\nSpecifically for ")
	b.WriteString(audience)
	b.WriteString("s: ")
	b.WriteString(example)
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
