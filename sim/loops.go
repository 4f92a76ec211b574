package sim

import "golang.org/x/exp/slices"

// loopTracker starts, propagates and closes loop instances. Tags ride on
// tuples; the tracker only keeps the completed samples.
type loopTracker struct {
	loops        []Loop
	nextInstance uint64
	samples      [][]float64
}

func newLoopTracker(loops []Loop) *loopTracker {
	return &loopTracker{loops: loops, samples: make([][]float64, len(loops))}
}

// onArrival tags a tuple reaching module for processing with a fresh
// instance of every loop that starts at module and the tuple is not already
// travelling on.
func (lt *loopTracker) onArrival(t *Tuple, module string, now float64) {
	for i, l := range lt.loops {
		if l.Path[0] != module || slices.ContainsFunc(t.Loops, func(tag LoopTag) bool { return tag.Loop == i }) {
			continue
		}
		lt.nextInstance++
		t.Loops = append(t.Loops, LoopTag{Loop: i, Instance: lt.nextInstance, Start: now})
	}
}

// onProcessed closes the instances whose last member is module and returns
// how many it closed.
func (lt *loopTracker) onProcessed(t *Tuple, module string, now float64) (closed int) {
	for _, tag := range t.Loops {
		path := lt.loops[tag.Loop].Path
		if path[tag.Next] == module && tag.Next == len(path)-1 {
			lt.samples[tag.Loop] = append(lt.samples[tag.Loop], now-tag.Start)
			closed++
		}
	}
	return closed
}

// propagate returns the tags of t that continue onto an output sent from
// module to dest.
func (lt *loopTracker) propagate(t *Tuple, module, dest string) []LoopTag {
	var out []LoopTag
	for _, tag := range t.Loops {
		path := lt.loops[tag.Loop].Path
		if path[tag.Next] != module || tag.Next+1 >= len(path) || path[tag.Next+1] != dest {
			continue
		}
		tag.Next++
		out = append(out, tag)
	}
	return out
}

// onActuator closes instances whose terminal member is the actuator type.
func (lt *loopTracker) onActuator(t *Tuple, actuatorType string, now float64) (closed int) {
	return lt.onProcessed(t, actuatorType, now)
}

// complete reports whether every loop has at least n samples.
func (lt *loopTracker) complete(n int) bool {
	if len(lt.loops) == 0 {
		return false
	}
	for _, s := range lt.samples {
		if len(s) < n {
			return false
		}
	}
	return true
}
