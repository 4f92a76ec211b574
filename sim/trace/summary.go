package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents        int
	EventsByKind       map[string]int
	TuplesProcessed    int
	TuplesByModule     map[string]int
	MeanResidence      float64 // mean Finished-Arrived over processed tuples
	MaxResidence       float64
	Actuations         int
	ActuationsByTarget map[string]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventsByKind:       make(map[string]int),
		TuplesByModule:     make(map[string]int),
		ActuationsByTarget: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.EventsByKind[e.Kind]++
	}

	if len(st.Tuples) > 0 {
		total := 0.0
		for _, r := range st.Tuples {
			summary.TuplesByModule[r.Module]++
			residence := r.Finished - r.Arrived
			total += residence
			if residence > summary.MaxResidence {
				summary.MaxResidence = residence
			}
		}
		summary.TuplesProcessed = len(st.Tuples)
		summary.MeanResidence = total / float64(len(st.Tuples))
	}

	summary.Actuations = len(st.Actuations)
	for _, a := range st.Actuations {
		summary.ActuationsByTarget[a.Actuator]++
	}
	return summary
}
