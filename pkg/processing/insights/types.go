package insights

// Type classifies an insight.
type Type string

const (
	TypeInformation    Type = "information"
	TypeWarning        Type = "warning"
	TypeError          Type = "error"
	TypeRecommendation Type = "recommendation"
	TypeSuccess        Type = "success"
)

// Importance ranks insights and actions. Higher values are kept first.
type Importance int

const (
	ImportanceLow Importance = iota + 1
	ImportanceMedium
	ImportanceHigh
	ImportanceCritical
)

// String returns the lowercase name of the importance level.
func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceMedium:
		return "medium"
	case ImportanceHigh:
		return "high"
	case ImportanceCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Score is the ranking weight of the importance level.
func (i Importance) Score() float64 {
	return float64(i)
}

// Insight is a short note about a result.
type Insight struct {
	Text       string     `json:"text" cbor:"text"`
	Type       Type       `json:"type" cbor:"type"`
	Importance Importance `json:"importance" cbor:"importance"`
}

// Action is a suggested follow-up tool invocation.
type Action struct {
	Tool        string         `json:"tool" cbor:"tool"`
	Description string         `json:"description" cbor:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" cbor:"parameters,omitempty"`
	Priority    Importance     `json:"priority" cbor:"priority"`
}

// Input describes a build outcome to the templates.
type Input struct {
	// Tool is the name of the tool that produced the result.
	Tool string

	// Result is the (possibly reduced) result value.
	Result any

	// OriginalCount and RetainedCount describe the largest reduced
	// collection. Both are zero when nothing was reduced.
	OriginalCount int
	RetainedCount int

	// Truncated reports that content was dropped.
	Truncated bool

	// ResourceURI is set when the full result was offloaded.
	ResourceURI string

	// ResourceSize is the size in bytes of the offloaded payload.
	ResourceSize int64
}

// Selection is the outcome of Select.
type Selection struct {
	Insights []Insight `json:"insights"`
	Actions  []Action  `json:"actions"`
}

// Template proposes insights and actions for a build outcome.
type Template func(in Input) ([]Insight, []Action)
