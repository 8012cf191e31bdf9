package pvcarbon

// Stage of the lifecycle, named after EN 15978 modules.
type Stage string

const (
	StageEmbodied     Stage = "A1-A3"
	StageTransport    Stage = "A4"
	StageConstruction Stage = "A5"
	StageReplacement  Stage = "B2-B5"
	StageOperational  Stage = "B6"
	StageStorage      Stage = "BESS"
)

// LineItem is the result of a single item of a stage (a material, a transport
// leg, an activity). A failed item carries Err and never contributes to the
// stage total.
type LineItem struct {
	// Index is the 1-based position of the item in the caller input, 0 when the
	// input order carries no meaning.
	Index        int
	Key          string
	Label        string
	Quantity     float64
	QuantityUnit string
	Factor       EmissionFactor
	Emissions    Emissions
	Description  string
	Source       string
	// Inputs are raw values echoed back for traceability.
	Inputs map[string]float64
	Err    error
}

func (item LineItem) OK() bool {
	return item.Err == nil
}

// StageResult is what every calculator returns.
type StageResult struct {
	Stage       Stage
	Method      string
	Total       Emissions
	Breakdown   []LineItem
	Assumptions map[string]any
	// Details are stage specific figures, in the unit their key names.
	Details map[string]float64
	Note    string
	// Err is set when the whole stage could not be computed.
	Err error
}

func NewStageResult(stage Stage, method string) StageResult {
	return StageResult{
		Stage:       stage,
		Method:      method,
		Breakdown:   make([]LineItem, 0),
		Assumptions: make(map[string]any),
		Details:     make(map[string]float64),
	}
}

// ZeroResult is returned when the optional input of a stage is absent.
func ZeroResult(stage Stage, note string) StageResult {
	result := NewStageResult(stage, "")
	result.Note = note
	return result
}

// FailedResult reports a stage that could not be computed at all.
func FailedResult(stage Stage, err error) StageResult {
	result := NewStageResult(stage, "")
	result.Err = &StageErr{Stage: stage, Err: err}
	return result
}

// Add appends item to the breakdown and accumulates its emissions when it succeeded.
func (result *StageResult) Add(item LineItem) {
	result.Breakdown = append(result.Breakdown, item)
	if item.OK() {
		result.Total += item.Emissions
	}
}

func (result StageResult) TotalKgCO2e() float64 {
	return result.Total.KgCO2e()
}

func (result StageResult) TotalTonnesCO2e() float64 {
	return result.Total.TCO2e()
}

// Failures returns the breakdown items that could not be computed.
func (result StageResult) Failures() []LineItem {
	failures := make([]LineItem, 0)
	for _, item := range result.Breakdown {
		if !item.OK() {
			failures = append(failures, item)
		}
	}
	return failures
}

func (result StageResult) Failed() bool {
	return result.Err != nil
}
