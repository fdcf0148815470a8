package domain

// Classifier assigns a safety tier to SQL text.
type Classifier interface {
	Classify(sql string) Classification
}

// KeywordClassifier classifies by leading keyword only. It is the baseline
// every other classifier must never undercut.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(sql string) Classification {
	return Classify(sql)
}

// Verdict is the gate's answer for one candidate query.
type Verdict struct {
	Classification Classification `json:"classification"`
	Decision       Decision       `json:"decision"`
	SQL            string         `json:"sql"`
	Limited        bool           `json:"limited"`
}

// Blocked reports whether the caller has to obtain confirmation first.
func (v Verdict) Blocked() bool {
	return v.Decision == BlockPendingConfirmation
}

// GateConfig holds the gate's policy. It is built once at startup and passed
// in explicitly.
type GateConfig struct {
	Classifier Classifier // nil means KeywordClassifier
	MaxRows    int        // <= 0 means DefaultMaxRows
}

// Gate combines classification, the confirmation decision and row capping.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	classifier Classifier
	maxRows    int
}

func NewGate(cfg GateConfig) *Gate {
	g := &Gate{classifier: cfg.Classifier, maxRows: cfg.MaxRows}
	if g.classifier == nil {
		g.classifier = KeywordClassifier{}
	}
	if g.maxRows <= 0 {
		g.maxRows = DefaultMaxRows
	}
	return g
}

// MaxRows returns the row cap injected into read-only statements.
func (g *Gate) MaxRows() int { return g.maxRows }

// Classify runs the configured classifier.
func (g *Gate) Classify(sql string) Classification {
	return g.classifier.Classify(sql)
}

// Evaluate classifies sql, decides whether it may run given confirmed, and
// caps read-only statements. Non-read-only SQL is never rewritten.
func (g *Gate) Evaluate(sql string, confirmed bool) Verdict {
	c := g.classifier.Classify(sql)
	v := Verdict{
		Classification: c,
		Decision:       Decide(c, confirmed),
		SQL:            sql,
	}
	if c == ReadOnly {
		v.SQL = EnsureLimit(sql, g.maxRows)
		v.Limited = v.SQL != sql
	}
	return v
}
