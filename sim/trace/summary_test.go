package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalEvents != 0 {
		t.Errorf("expected 0 events, got %d", summary.TotalEvents)
	}
	if summary.TuplesProcessed != 0 || summary.Actuations != 0 {
		t.Error("expected 0 tuples and actuations")
	}
	if summary.MeanResidence != 0 || summary.MaxResidence != 0 {
		t.Error("expected 0 residence values")
	}
	if len(summary.TuplesByModule) != 0 {
		t.Error("expected empty module distribution")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalEvents != 0 || summary.EventsByKind == nil {
		t.Errorf("expected zero summary with initialized maps, got %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with events, tuples and actuations
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.RecordEvent(EventRecord{Seq: 1, Clock: 0.5, Kind: "sensor-emission"})
	st.RecordEvent(EventRecord{Seq: 2, Clock: 1.0, Kind: "tuple-arrival", Device: "gw"})
	st.RecordEvent(EventRecord{Seq: 3, Clock: 1.0, Kind: "tuple-arrival", Device: "gw"})
	st.RecordTuple(TupleRecord{TupleID: 1, Module: "m", Arrived: 1, Finished: 2})
	st.RecordTuple(TupleRecord{TupleID: 2, Module: "m", Arrived: 1, Finished: 4})
	st.RecordTuple(TupleRecord{TupleID: 3, Module: "n", Arrived: 2, Finished: 2.5})
	st.RecordActuation(ActuationRecord{TupleID: 4, Actuator: "a0", Clock: 5})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalEvents != 3 {
		t.Errorf("expected 3 events, got %d", summary.TotalEvents)
	}
	if summary.EventsByKind["tuple-arrival"] != 2 {
		t.Errorf("expected 2 tuple arrivals, got %d", summary.EventsByKind["tuple-arrival"])
	}
	if summary.TuplesByModule["m"] != 2 || summary.TuplesByModule["n"] != 1 {
		t.Errorf("unexpected module distribution %v", summary.TuplesByModule)
	}
	if summary.Actuations != 1 || summary.ActuationsByTarget["a0"] != 1 {
		t.Errorf("expected one actuation on a0, got %v", summary.ActuationsByTarget)
	}
}

func TestSummarize_Residence_CorrectMeanAndMax(t *testing.T) {
	// GIVEN tuples with residence 1, 3 and 0.5
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTuples})
	st.RecordTuple(TupleRecord{TupleID: 1, Module: "m", Arrived: 1, Finished: 2})
	st.RecordTuple(TupleRecord{TupleID: 2, Module: "m", Arrived: 1, Finished: 4})
	st.RecordTuple(TupleRecord{TupleID: 3, Module: "m", Arrived: 2, Finished: 2.5})

	// WHEN summarized
	summary := Summarize(st)

	// THEN mean residence = 4.5 / 3
	expectedMean := 4.5 / 3.0
	if summary.MeanResidence < expectedMean-0.001 || summary.MeanResidence > expectedMean+0.001 {
		t.Errorf("expected mean residence ~%.4f, got %.4f", expectedMean, summary.MeanResidence)
	}
	// THEN max residence = 3
	if summary.MaxResidence != 3 {
		t.Errorf("expected max residence 3, got %.4f", summary.MaxResidence)
	}
}
