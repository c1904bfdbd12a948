package models

type GenerationRequest struct {
	JobDescription string `json:"jobDescription"`
	ResumeSection  string `json:"resumeSection"`
	SectionType    string `json:"sectionType,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

type KeywordMatches struct {
	Matched         []string `json:"matched"`
	Missing         []string `json:"missing"`
	MatchPercentage int      `json:"matchPercentage"`
}

type ImprovementTip struct {
	Tip      string `json:"tip"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type Changes struct {
	Added        []string `json:"added"`
	Modified     []string `json:"modified"`
	Improvements []string `json:"improvements"`
}

// GenerationResult is a successful tailoring. Degraded is set when the
// generator answered with plain text instead of the structured document; the
// collections are then empty.
type GenerationResult struct {
	TailoredText    string           `json:"tailoredText"`
	KeywordMatches  KeywordMatches   `json:"keywordMatches"`
	ImprovementTips []ImprovementTip `json:"improvementTips"`
	Changes         Changes          `json:"changes"`
	Degraded        bool             `json:"degraded"`
}

// Normalize replaces nil collections with empty ones so clients always see
// arrays.
func (r *GenerationResult) Normalize() {
	if r.KeywordMatches.Matched == nil {
		r.KeywordMatches.Matched = []string{}
	}
	if r.KeywordMatches.Missing == nil {
		r.KeywordMatches.Missing = []string{}
	}
	if r.ImprovementTips == nil {
		r.ImprovementTips = []ImprovementTip{}
	}
	if r.Changes.Added == nil {
		r.Changes.Added = []string{}
	}
	if r.Changes.Modified == nil {
		r.Changes.Modified = []string{}
	}
	if r.Changes.Improvements == nil {
		r.Changes.Improvements = []string{}
	}
}
