package trace

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTuples captures processed tuples and actuator deliveries.
	TraceLevelTuples TraceLevel = "tuples"
	// TraceLevelEvents additionally captures every executed event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelTuples: true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// RecordsTuples reports whether tuple and actuation records are kept.
func (c TraceConfig) RecordsTuples() bool {
	return c.Level == TraceLevelTuples || c.Level == TraceLevelEvents
}

// RecordsEvents reports whether every executed event is kept.
func (c TraceConfig) RecordsEvents() bool {
	return c.Level == TraceLevelEvents
}

// SimulationTrace collects records during a simulation run.
type SimulationTrace struct {
	Config     TraceConfig
	Events     []EventRecord
	Tuples     []TupleRecord
	Actuations []ActuationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Events:     make([]EventRecord, 0),
		Tuples:     make([]TupleRecord, 0),
		Actuations: make([]ActuationRecord, 0),
	}
}

// RecordEvent appends an event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Events = append(st.Events, record)
}

// RecordTuple appends a processed-tuple record.
func (st *SimulationTrace) RecordTuple(record TupleRecord) {
	st.Tuples = append(st.Tuples, record)
}

// RecordActuation appends an actuator delivery record.
func (st *SimulationTrace) RecordActuation(record ActuationRecord) {
	st.Actuations = append(st.Actuations, record)
}
