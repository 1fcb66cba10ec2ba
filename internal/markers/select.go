// Package markers turns raw contact results for one foot into the sync marker
// times that get written out.
package markers

import (
	"sort"

	"github.com/banshee-data/footsync/internal/contact"
)

// Options controls marker selection.
type Options struct {
	MinConfidence       float64 // kept markers must be strictly above this
	MaxMarkers          int     // 0 means unlimited
	GuaranteeMinimumOne bool
	MinimumInterval     float64 // seconds
}

// DefaultOptions returns the selection values shipped in config/tuning.defaults.json.
func DefaultOptions() Options {
	return Options{
		MinConfidence:       0.3,
		MaxMarkers:          2,
		GuaranteeMinimumOne: true,
		MinimumInterval:     0.1,
	}
}

// Marker is a selected contact.
type Marker struct {
	Time       float64 `json:"time"`
	Confidence float64 `json:"confidence"`
}

// Selection is the outcome of Select for one foot.
type Selection struct {
	Markers []Marker `json:"markers"`

	// Contacts counts every contact result before any filtering.
	Contacts int `json:"contacts"`
	// Confident counts results that passed the confidence gate, including a
	// guaranteed fallback marker.
	Confident int `json:"confident"`
	// LowConfidence is set when the only marker came from GuaranteeMinimumOne.
	LowConfidence bool `json:"low_confidence"`
}

// Times returns the selected marker times in order.
func (s Selection) Times() []float64 {
	out := make([]float64, len(s.Markers))
	for i, m := range s.Markers {
		out[i] = m.Time
	}
	return out
}

// Select filters results down to marker times:
// contacts only, best MaxMarkers by confidence, strictly above MinConfidence
// (or the single best contact when GuaranteeMinimumOne applies), then
// ordered by time with anything within MinimumInterval of the previous
// kept marker dropped.
func Select(results []contact.Result, opts Options) Selection {
	var contacts []contact.Result
	for _, r := range results {
		if r.IsContact {
			contacts = append(contacts, r)
		}
	}
	sel := Selection{Contacts: len(contacts), Markers: []Marker{}}
	if len(contacts) == 0 {
		return sel
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].Confidence > contacts[j].Confidence
	})
	if opts.MaxMarkers > 0 && len(contacts) > opts.MaxMarkers {
		contacts = contacts[:opts.MaxMarkers]
	}

	var confident []contact.Result
	for _, r := range contacts {
		if r.Confidence > opts.MinConfidence {
			confident = append(confident, r)
		}
	}
	if len(confident) == 0 && opts.GuaranteeMinimumOne {
		confident = append(confident, contacts[0])
		sel.LowConfidence = true
	}
	sel.Confident = len(confident)

	sort.SliceStable(confident, func(i, j int) bool {
		return confident[i].Time < confident[j].Time
	})
	for _, r := range confident {
		if n := len(sel.Markers); n > 0 && r.Time-sel.Markers[n-1].Time <= opts.MinimumInterval {
			continue
		}
		sel.Markers = append(sel.Markers, Marker{Time: r.Time, Confidence: r.Confidence})
	}
	return sel
}
