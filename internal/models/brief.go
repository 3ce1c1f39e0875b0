package models

// BriefSource tags where an intelligence brief came from, so callers
// branch on the tag instead of on errors.
type BriefSource string

const (
	// BriefSourceAI indicates the brief was synthesized by the external
	// text-generation service.
	BriefSourceAI BriefSource = "ai"
	// BriefSourceFallback indicates the brief is the deterministic
	// synthetic placeholder used when external research is unavailable.
	BriefSourceFallback BriefSource = "fallback"
)

// Competitor is one named competitor with a short description.
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MarketAnalysisBrief holds the market sizing and landscape section of a brief.
// TAM/SAM/SOM are opaque strings ("$150B"), never parsed numerically here.
type MarketAnalysisBrief struct {
	SizeTAM        string       `json:"sizeTAM"`
	SizeSAM        string       `json:"sizeSAM"`
	SizeSOM        string       `json:"sizeSOM"`
	KeyTrends      []string     `json:"keyTrends"`
	TargetCustomer string       `json:"targetCustomer"`
	Competitors    []Competitor `json:"competitors"`
}

// TeamMember is one person on the founding or executive team.
type TeamMember struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Background string `json:"background"`
}

// FundingRound is one historical raise. All amounts are opaque strings;
// numeric parsing is a CRM-sync concern, not a pipeline concern.
type FundingRound struct {
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	LeadInvestor string `json:"leadInvestor"`
}

// Financials holds the funding and revenue section of a brief.
type Financials struct {
	TotalFunding  string         `json:"totalFunding"`
	LastRound     string         `json:"lastRound"`
	Revenue       string         `json:"revenue"`
	Valuation     string         `json:"valuation"`
	FundingRounds []FundingRound `json:"fundingRounds"`
}

// SWOTAnalysis holds the four SWOT lists.
type SWOTAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// IntelligenceBrief is the canonical structured research result for one
// company. Every field is present with an explicit empty value when it
// cannot be resolved; the schema never omits a key. The struct is the
// single schema definition: the synthesizer prompt and the synthetic
// fallback brief are both derived from it, so the two cannot drift.
type IntelligenceBrief struct {
	CompanyName      string `json:"companyName"`
	FoundedYear      string `json:"foundedYear"`
	Tagline          string `json:"tagline"`
	ExecutiveSummary string `json:"executiveSummary"`
	ProblemStatement string `json:"problemStatement"`
	Solution         string `json:"solution"`
	BusinessModel    string `json:"businessModel"`
	ProductOverview  string `json:"productOverview"`

	MarketAnalysis MarketAnalysisBrief `json:"marketAnalysis"`
	Team           []TeamMember        `json:"team"`
	Financials     Financials          `json:"financials"`
	SWOTAnalysis   SWOTAnalysis        `json:"swotAnalysis"`

	TechnologyStack      []string `json:"technologyStack"`
	IntellectualProperty []string `json:"intellectualProperty"`
}

// NewIntelligenceBrief returns a brief with every list field allocated
// empty and the company name set. Optional-field handling is enforced
// here, once, rather than scattered through every consumer.
func NewIntelligenceBrief(companyName string) *IntelligenceBrief {
	return &IntelligenceBrief{
		CompanyName: companyName,
		MarketAnalysis: MarketAnalysisBrief{
			KeyTrends:   []string{},
			Competitors: []Competitor{},
		},
		Team: []TeamMember{},
		Financials: Financials{
			FundingRounds: []FundingRound{},
		},
		SWOTAnalysis: SWOTAnalysis{
			Strengths:     []string{},
			Weaknesses:    []string{},
			Opportunities: []string{},
			Threats:       []string{},
		},
		TechnologyStack:      []string{},
		IntellectualProperty: []string{},
	}
}

// Normalize re-establishes the never-nil invariant after JSON decoding.
// Decoded briefs may omit nested keys entirely; missing lists become
// empty lists and a missing company name falls back to the given one.
func (b *IntelligenceBrief) Normalize(companyName string) {
	if b.CompanyName == "" {
		b.CompanyName = companyName
	}
	if b.MarketAnalysis.KeyTrends == nil {
		b.MarketAnalysis.KeyTrends = []string{}
	}
	if b.MarketAnalysis.Competitors == nil {
		b.MarketAnalysis.Competitors = []Competitor{}
	}
	if b.Team == nil {
		b.Team = []TeamMember{}
	}
	if b.Financials.FundingRounds == nil {
		b.Financials.FundingRounds = []FundingRound{}
	}
	if b.SWOTAnalysis.Strengths == nil {
		b.SWOTAnalysis.Strengths = []string{}
	}
	if b.SWOTAnalysis.Weaknesses == nil {
		b.SWOTAnalysis.Weaknesses = []string{}
	}
	if b.SWOTAnalysis.Opportunities == nil {
		b.SWOTAnalysis.Opportunities = []string{}
	}
	if b.SWOTAnalysis.Threats == nil {
		b.SWOTAnalysis.Threats = []string{}
	}
	if b.TechnologyStack == nil {
		b.TechnologyStack = []string{}
	}
	if b.IntellectualProperty == nil {
		b.IntellectualProperty = []string{}
	}
}

// HasIdentity reports whether the minimal required identity keys are
// populated. Briefs without identity trigger the synthetic fallback.
func (b *IntelligenceBrief) HasIdentity() bool {
	return b.CompanyName != "" && b.Tagline != "" && b.ExecutiveSummary != ""
}

// BriefOutcome is the tagged result of a synthesis attempt. Synthesis
// never fails: the outcome always carries a structurally valid brief,
// and Source records whether it came from the external service or the
// fallback generator.
type BriefOutcome struct {
	Brief  *IntelligenceBrief `json:"brief"`
	Source BriefSource        `json:"source"`
	// Model is the model string the provider reported, empty for fallback.
	Model string `json:"model,omitempty"`
}
