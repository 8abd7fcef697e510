package compiler

import (
	"math"
	"sort"

	"github.com/catseq-lab/catseqc/pkg/hw"
)

// loadPlayPair couples a wf_load_coeffs event with the next chronological
// wf_update_params event on the same channel. Play is nil when no
// consumer follows; such loads are left exactly where Pass 1 put them.
type loadPlayPair struct {
	Load *event
	Play *event
}

func identifyPipelinePairs(events []*event) []loadPlayPair {
	byChannel := make(map[hw.Channel][]*event)
	for _, ev := range events {
		byChannel[ev.Channel] = append(byChannel[ev.Channel], ev)
	}

	var pairs []loadPlayPair
	for _, chEvents := range byChannel {
		sort.Slice(chEvents, func(i, j int) bool { return chEvents[i].AbsoluteCycle < chEvents[j].AbsoluteCycle })
		for i, ev := range chEvents {
			if !ev.isLoad() {
				continue
			}
			var play *event
			for j := i + 1; j < len(chEvents); j++ {
				if chEvents[j].isPlay() {
					play = chEvents[j]
					break
				}
			}
			pairs = append(pairs, loadPlayPair{Load: ev, Play: play})
		}
	}
	return pairs
}

// schedulePipelining implements Pass 3: it pipelines timing-flexible
// wf_load_coeffs events into idle windows ending at their paired
// wf_update_params's timestamp, scheduling the latest PLAY's LOAD first so
// that earlier LOADs back off around an already-committed later one.
// Grounded on the legacy Python reference's backward, conflict-avoiding
// _calculate_optimal_schedule, reworked over this package's absolute-cycle
// event representation.
func schedulePipelining(events []*event) {
	pairs := identifyPipelinePairs(events)

	var schedulable []loadPlayPair
	pending := make(map[*event]bool)
	for _, p := range pairs {
		if p.Play != nil {
			schedulable = append(schedulable, p)
			pending[p.Load] = true
		}
	}
	sort.Slice(schedulable, func(i, j int) bool {
		return schedulable[i].Play.AbsoluteCycle > schedulable[j].Play.AbsoluteCycle
	})

	nextLoadAvailable := uint64(math.MaxUint64)
	for _, pair := range schedulable {
		latestFinish := pair.Play.AbsoluteCycle
		if nextLoadAvailable < latestFinish {
			latestFinish = nextLoadAvailable
		}

		proposedStart := subClamped(latestFinish, pair.Load.CostCycles)
		delete(pending, pair.Load)

		for _, other := range events {
			if other == pair.Load || other == pair.Play || pending[other] {
				continue
			}
			otherStart := other.AbsoluteCycle
			intervalEnd := proposedStart + pair.Load.CostCycles
			if otherStart < intervalEnd && other.AbsoluteCycle+other.CostCycles > proposedStart {
				proposedStart = subClamped(otherStart, pair.Load.CostCycles)
			}
		}

		// Never move a LOAD out of its own epoch: an epoch after the first
		// begins one cycle past its barrier, whose cycle stays in the epoch
		// the barrier ends.
		epochFloor := pair.Load.AbsoluteCycle - pair.Load.Timestamp.OffsetCycles
		if pair.Load.Timestamp.Epoch > 0 {
			epochFloor++
		}
		if proposedStart < epochFloor {
			proposedStart = epochFloor
		}

		moveEvent(pair.Load, proposedStart)
		nextLoadAvailable = proposedStart
	}
}

func subClamped(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// moveEvent relocates ev to a new absolute cycle, preserving its epoch and
// shifting its within-epoch offset by the same delta. Callers are
// responsible for never crossing an epoch boundary; Pass 4 validates it.
func moveEvent(ev *event, newAbsoluteCycle uint64) {
	delta := int64(newAbsoluteCycle) - int64(ev.AbsoluteCycle)
	ev.AbsoluteCycle = newAbsoluteCycle
	ev.Timestamp.OffsetCycles = uint64(int64(ev.Timestamp.OffsetCycles) + delta)
}
