package source

import "forexbt/internal/domain"

// TagGroups splits the chronological tick sequence into groupCount
// contiguous partitions and tags every tick with its testing group (the
// 1-based partition it falls in) and its validation group (the following
// partition, wrapping around). The tags ride on the ticks as transient
// fields and are stripped out of the feature data at persistence time.
func TagGroups(ticks []*domain.Tick, groupCount int) {
	if groupCount <= 0 || len(ticks) == 0 {
		return
	}

	size := (len(ticks) + groupCount - 1) / groupCount
	for i, tick := range ticks {
		group := i / size
		tick.Set("testingGroups", float64(group+1))
		tick.Set("validationGroups", float64((group+1)%groupCount+1))
	}
}
