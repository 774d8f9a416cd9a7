package translate

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		query    string
		concept  string
		audience string
	}{
		{"What is R-squared?", "r-squared", "general"},
		{"explain r squared to an actuary", "r-squared", "actuary"},
		{"what is the coefficient of determination", "r-squared", "general"},
		{"Explain loss ratio to an underwriter", "loss ratio", "underwriter"},
		{"how do incurred losses work", "loss ratio", "general"},
		{"tell me about predictive models", "predictive model", "general"},
		{"machine learning for our CEO", "predictive model", "executive"},
		{"what should leadership know about models", "predictive model", "executive"},
		{"hello there", "data science", "general"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			concept, audience := Extract(tt.query)
			if concept != tt.concept {
				t.Errorf("concept = %q, want %q", concept, tt.concept)
			}
			if audience != tt.audience {
				t.Errorf("audience = %q, want %q", audience, tt.audience)
			}
		})
	}
}

func TestRespondTemplate(t *testing.T) {
	resp := Respond("r-squared", "actuary")

	if !strings.Contains(resp, "R-squared is a statistical measure") {
		t.Errorf("missing definition: %q", resp)
	}
	if !strings.Contains(resp, "In the insurance industry:") {
		t.Errorf("missing context line: %q", resp)
	}
	if !strings.Contains(resp, "Specifically for actuarys:") && !strings.Contains(resp, "Specifically for actuary") {
		t.Errorf("missing audience line: %q", resp)
	}
	if !strings.Contains(resp, "GLMs") {
		t.Errorf("missing actuary example: %q", resp)
	}
}

func TestRespondGeneralAudienceFallsBack(t *testing.T) {
	resp := Respond("loss ratio", "general")
	if !strings.Contains(resp, "profitability of an insurance product") {
		t.Errorf("general audience should reuse the context line: %q", resp)
	}
}

func TestRespondUnknownConcept(t *testing.T) {
	resp := Respond("quantum underwriting", "general")
	if !strings.Contains(resp, "Data science is an interdisciplinary field") {
		t.Errorf("unknown concept should fall back to the default entry: %q", resp)
	}
}
