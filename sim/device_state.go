package sim

import "math"

// job is one tuple executing on a device under processor sharing.
type job struct {
	tuple     *Tuple
	module    string
	length    float64 // MI
	remaining float64 // MI
	arrived   float64
}

func (j *job) done() bool {
	return j.remaining <= 1e-9*math.Max(1, j.length)
}

// UtilizationSample is one interval of constant utilization on a device.
type UtilizationSample struct {
	Start       float64
	End         float64
	Utilization float64
}

// deviceState is the per-run mutable state of a Device. It is only touched by
// event handlers for that device.
type deviceState struct {
	dev *Device

	jobs       []*job
	lastUpdate float64
	generation uint64

	energy     float64
	busyTime   float64 // integral of utilization over time
	executedMI float64
	cost       float64
	processed  int
	forwarded  int

	logUtilization bool
	utilization    []UtilizationSample

	uplinkBusyUntil   float64
	downlinkBusyUntil float64
}

func newDeviceState(dev *Device, logUtilization bool) *deviceState {
	return &deviceState{dev: dev, logUtilization: logUtilization}
}

// rate returns the MIPS each active job receives: PEs are shared fairly, and a
// job never runs faster than one PE.
func (d *deviceState) rate() float64 {
	n := len(d.jobs)
	if n == 0 {
		return 0
	}
	return d.dev.MIPS * math.Min(1, float64(d.dev.NumPEs())/float64(n))
}

// currentUtilization is the fraction of PEs in use.
func (d *deviceState) currentUtilization() float64 {
	pes := d.dev.NumPEs()
	return float64(min(len(d.jobs), pes)) / float64(pes)
}

// advance integrates energy and job progress from lastUpdate to now.
func (d *deviceState) advance(now float64) {
	dt := now - d.lastUpdate
	if dt <= 0 {
		return
	}
	u := d.currentUtilization()
	d.energy += d.dev.Power.Power(u) * dt
	d.busyTime += u * dt
	if d.logUtilization {
		if n := len(d.utilization); n > 0 && d.utilization[n-1].Utilization == u && d.utilization[n-1].End == d.lastUpdate {
			d.utilization[n-1].End = now
		} else {
			d.utilization = append(d.utilization, UtilizationSample{Start: d.lastUpdate, End: now, Utilization: u})
		}
	}
	if r := d.rate(); r > 0 {
		step := r * dt
		for _, j := range d.jobs {
			done := math.Min(step, j.remaining)
			j.remaining -= done
			d.executedMI += done
		}
	}
	d.lastUpdate = now
}

// admit starts a job and returns the completion event that supersedes any
// previously scheduled one, or nil when nothing can complete.
func (d *deviceState) admit(now float64, j *job) *ProcessingCompleteEvent {
	d.advance(now)
	d.jobs = append(d.jobs, j)
	return d.nextCompletion(now)
}

// nextCompletion bumps the generation and computes when the job with the least
// remaining work finishes at the current sharing rate.
func (d *deviceState) nextCompletion(now float64) *ProcessingCompleteEvent {
	d.generation++
	if len(d.jobs) == 0 {
		return nil
	}
	least := math.Inf(1)
	for _, j := range d.jobs {
		if j.done() {
			least = 0
			break
		}
		least = math.Min(least, j.remaining)
	}
	at := now
	if least > 0 {
		r := d.rate()
		if r <= 0 {
			return nil
		}
		at = now + least/r
	}
	return &ProcessingCompleteEvent{time: at, Device: d.dev.ID, generation: d.generation}
}

// complete removes and returns the finished jobs if gen is current, plus the
// follow-up completion event. Stale generations return ok=false.
func (d *deviceState) complete(now float64, gen uint64) (finished []*job, next *ProcessingCompleteEvent, ok bool) {
	if gen != d.generation {
		return nil, nil, false
	}
	d.advance(now)
	// the event was scheduled for the least-remaining job; rounding in
	// at-now must not leave it running
	if least := d.leastRemaining(); least != nil && !least.done() {
		d.executedMI += least.remaining
		least.remaining = 0
	}
	kept := d.jobs[:0]
	for _, j := range d.jobs {
		if j.done() {
			finished = append(finished, j)
			d.processed++
			d.cost += d.dev.RatePerMIPS * j.length
		} else {
			kept = append(kept, j)
		}
	}
	for i := len(kept); i < len(d.jobs); i++ {
		d.jobs[i] = nil
	}
	d.jobs = kept
	return finished, d.nextCompletion(now), true
}

func (d *deviceState) leastRemaining() *job {
	var least *job
	for _, j := range d.jobs {
		if least == nil || j.remaining < least.remaining {
			least = j
		}
	}
	return least
}

// transmitUp serializes a transmission on the uplink to the parent and
// returns its arrival time there.
func (d *deviceState) transmitUp(now, netLen float64) float64 {
	start := math.Max(now, d.uplinkBusyUntil)
	d.uplinkBusyUntil = start + transferTime(netLen, d.dev.UpBw)
	d.forwarded++
	return d.uplinkBusyUntil + d.dev.UplinkLatency
}

// transmitDown serializes a transmission on the shared downlink toward child
// and returns its arrival time there.
func (d *deviceState) transmitDown(now, netLen float64, child *Device) float64 {
	start := math.Max(now, d.downlinkBusyUntil)
	d.downlinkBusyUntil = start + transferTime(netLen, d.dev.DownBw)
	d.forwarded++
	return d.downlinkBusyUntil + child.UplinkLatency
}

func transferTime(netLen, bw float64) float64 {
	if bw <= 0 || netLen <= 0 {
		return 0
	}
	return netLen / bw
}
