// Package dedup detects exact and near-duplicate news mentions and selects a
// single surviving record per duplicate cluster.
package dedup

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/johnathanacortesd/LimpiarV/internal/normalize"
	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

const (
	// DefaultSimilarityThreshold links two titles into a possible-duplicate
	// cluster.
	DefaultSimilarityThreshold = 0.85

	// Loose-grouping tolerances for the fuzzy step.
	maxDateGap      = 24 * time.Hour
	maxAirTimeGap = 5 * time.Minute
)

// Options tunes the detector.
type Options struct {
	SimilarityThreshold float64
}

// Result reports how many records each step flagged.
type Result struct {
	ExactDuplicates    int
	PossibleDuplicates int
}

// Detector runs the three-step duplicate detection over a full batch. It
// holds no per-run state, so one value serves any number of runs.
type Detector struct {
	opts   Options
	logger zerolog.Logger
}

func New(logger zerolog.Logger, opts Options) *Detector {
	if opts.SimilarityThreshold <= 0 || opts.SimilarityThreshold > 1 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &Detector{opts: opts, logger: logger}
}

// Run mutates the batch in place: problematic titles are eliminated up
// front, exact-key groups and fuzzy clusters each keep one winner, and every
// eliminated record ends up with a non-empty kept reference.
func (d *Detector) Run(records []report.Record) Result {
	d.eliminateProblematic(records)
	d.groupExact(records)
	d.clusterFuzzy(records)
	d.assignOrphanRefs(records)

	var result Result
	for i := range records {
		if records[i].ExactDuplicate {
			result.ExactDuplicates++
		}
		if records[i].PossibleDuplicate {
			result.PossibleDuplicates++
		}
	}

	d.logger.Info().
		Int("records", len(records)).
		Int("exact_duplicates", result.ExactDuplicates).
		Int("possible_duplicates", result.PossibleDuplicates).
		Msg("duplicate detection finished")
	return result
}

// eliminateProblematic removes untitleable records from the competitive pool
// before any grouping. Their kept reference is filled by the orphan fallback
// unless a later group adopts them.
func (d *Detector) eliminateProblematic(records []report.Record) {
	for i := range records {
		if !records[i].Problematic {
			continue
		}
		records[i].ExactDuplicate = true
		records[i].Eliminate("")
	}
}

type exactKey struct {
	title   string
	outlet  string
	mention string
	date    string
	airTime string
}

func (d *Detector) groupExact(records []report.Record) {
	groups := make(map[exactKey][]int, len(records))
	for i := range records {
		rec := &records[i]
		if rec.Status != report.StatusConserve {
			continue
		}
		key := exactKey{
			title:   normalize.Key(rec.Title),
			outlet:  normalize.Key(rec.Outlet),
			mention: normalize.Key(rec.Mention),
			date:    rec.Date.Format("2006-01-02"),
		}
		// Internet publications are the same story regardless of timestamp;
		// every other media type keys on the air time too.
		if rec.MediaType.UsesAirTime() {
			key.airTime = rec.AirTime.Format("15:04")
		}
		groups[key] = append(groups[key], i)
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		d.resolveGroup(records, members, true)
	}
}

// resolveGroup sorts a duplicate group by the priority tuple, keeps the
// first record and eliminates the rest. The winner carries the diagnostic
// flag too: it is part of a duplicate set, just not the part removed.
func (d *Detector) resolveGroup(records []report.Record, members []int, exact bool) {
	sort.SliceStable(members, func(a, b int) bool {
		return lessPriority(&records[members[a]], &records[members[b]])
	})

	winner := &records[members[0]]
	ref := winner.RefLabel()
	for _, idx := range members {
		if exact {
			records[idx].ExactDuplicate = true
		} else {
			records[idx].PossibleDuplicate = true
		}
	}
	for _, idx := range members[1:] {
		records[idx].Eliminate(ref)
	}
}

// fuzzyPool is the loose grouping key: records can only cluster when outlet
// and mention match exactly and they are on the same side of the
// internet/broadcast divide.
type fuzzyPool struct {
	outlet   string
	mention  string
	internet bool
}

func (d *Detector) clusterFuzzy(records []report.Record) {
	pools := make(map[fuzzyPool][]int, len(records))
	for i := range records {
		rec := &records[i]
		if rec.Status != report.StatusConserve {
			continue
		}
		key := fuzzyPool{
			outlet:   normalize.Key(rec.Outlet),
			mention:  normalize.Key(rec.Mention),
			internet: rec.MediaType == report.MediaInternet,
		}
		pools[key] = append(pools[key], i)
	}

	for pool, members := range pools {
		if len(members) < 2 {
			continue
		}
		d.clusterPool(records, members, pool.internet)
	}
}

func (d *Detector) clusterPool(records []report.Record, members []int, internet bool) {
	uf := newUnionFind(len(members))
	keys := make([]string, len(members))
	for i, idx := range members {
		keys[i] = normalize.Key(records[idx].Title)
	}

	for i := 0; i < len(members); i++ {
		a := &records[members[i]]
		for j := i + 1; j < len(members); j++ {
			b := &records[members[j]]
			if !datesWithinGap(a.Date, b.Date) {
				continue
			}
			if !internet && !timesWithinGap(a.AirTime, b.AirTime) {
				continue
			}
			if TitleSimilarity(keys[i], keys[j]) >= d.opts.SimilarityThreshold {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int, len(members))
	for i := range members {
		root := uf.find(i)
		clusters[root] = append(clusters[root], members[i])
	}
	for _, cluster := range clusters {
		if len(cluster) < 2 {
			continue
		}
		d.resolveGroup(records, cluster, false)
	}
}

func (d *Detector) assignOrphanRefs(records []report.Record) {
	for i := range records {
		rec := &records[i]
		if rec.Status == report.StatusEliminate && rec.KeptRef == "" {
			rec.KeptRef = rec.OrphanRef()
		}
	}
}

func datesWithinGap(a, b time.Time) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxDateGap
}

func timesWithinGap(a, b time.Time) bool {
	aMin := a.Hour()*60 + a.Minute()
	bMin := b.Hour()*60 + b.Minute()
	diff := aMin - bMin
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= maxAirTimeGap
}
