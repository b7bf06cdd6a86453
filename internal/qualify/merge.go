package qualify

// Merge combines carried-in memory with this turn's extractions.
//
// A reset wipes every slot regardless of memory or extractions. Otherwise
// each slot independently keeps the highest-tier candidate: a known memory
// value always wins, then an explicit extraction, then an inferred one.
func Merge(memory SlotState, extracted map[Slot]ExtractionResult, reset bool) SlotState {
	merged := SlotState{}
	if reset {
		return merged
	}
	for _, slot := range AllSlots {
		best := ExtractionResult{}
		if memory.Known(slot) {
			best = ExtractionResult{Value: memory.Get(slot), Tier: TierMemory}
		}
		if cand, ok := extracted[slot]; ok && cand.Found() && cand.Tier > best.Tier {
			if v := Clean(cand.Value); v != "" {
				best = ExtractionResult{Value: v, Tier: cand.Tier, Evidence: cand.Evidence}
			}
		}
		if best.Found() {
			merged[slot] = best.Value
		}
	}
	return merged
}
