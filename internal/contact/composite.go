package contact

import (
	"sort"

	"github.com/banshee-data/footsync/internal/monitoring"
)

// CompositeDetector runs the three leaf detectors and fuses their results by
// time clustering and weighted voting. It owns one instance of each leaf.
type CompositeDetector struct {
	pelvis   *PelvisCrossingDetector
	velocity *VelocityCurveDetector
	saliency *SaliencyDetector

	// weights overrides Params.Weights when non-nil.
	weights *Weights
}

// NewCompositeDetector returns a composite that weighs methods with the
// Params passed to each Detect call.
func NewCompositeDetector() *CompositeDetector {
	return &CompositeDetector{
		pelvis:   &PelvisCrossingDetector{},
		velocity: &VelocityCurveDetector{},
		saliency: &SaliencyDetector{},
	}
}

// NewCompositeDetectorWithWeights returns a composite with fixed method
// weights, ignoring Params.Weights.
func NewCompositeDetectorWithWeights(w Weights) *CompositeDetector {
	d := NewCompositeDetector()
	d.weights = &w
	return d
}

func (*CompositeDetector) sealed() {}

// Method returns Composite.
func (*CompositeDetector) Method() Method { return Composite }

// SetVelocityThreshold forwards to the inner velocity detector.
func (d *CompositeDetector) SetVelocityThreshold(threshold float64) {
	d.velocity.SetVelocityThreshold(threshold)
}

// SetSaliencyThreshold forwards to the inner saliency detector.
func (d *CompositeDetector) SetSaliencyThreshold(threshold float64) {
	d.saliency.SetSaliencyThreshold(threshold)
}

// Detect runs every leaf detector whose weight exceeds epsilon and returns
// one fused result per time cluster, in ascending time order.
func (d *CompositeDetector) Detect(tr Trajectory, p Params) []Result {
	w := p.Weights
	if d.weights != nil {
		w = *d.weights
	}

	var pelvis, velocity, saliency []Result
	if w.Pelvis > epsilon {
		pelvis = d.pelvis.Detect(tr, p)
	}
	if w.Velocity > epsilon {
		velocity = d.velocity.Detect(tr, p)
	}
	if w.Saliency > epsilon {
		saliency = d.saliency.Detect(tr, p)
	}

	monitoring.Verbosef("[contact] composite %s: pelvis=%d velocity=%d saliency=%d results",
		tr.FootBone, len(pelvis), len(velocity), len(saliency))

	all := make([]Result, 0, len(pelvis)+len(velocity)+len(saliency))
	all = append(all, pelvis...)
	all = append(all, velocity...)
	all = append(all, saliency...)

	return Fuse(all, w, p.MergeThreshold, p.AgreementBonus)
}

// Fuse sorts results by time, groups them into anchor-based clusters and
// reduces each cluster to a single result. The input slice is not modified.
func Fuse(results []Result, w Weights, mergeThreshold, agreementBonus float64) []Result {
	fused := []Result{}
	if len(results) == 0 {
		return fused
	}

	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	for _, cluster := range ClusterByTime(sorted, mergeThreshold) {
		fused = append(fused, fuseCluster(cluster, w, agreementBonus))
	}
	return fused
}

// ClusterByTime splits time-sorted results into clusters. A result joins the
// current cluster when it lies within mergeThreshold of the cluster's first
// element; the anchor does not move as the cluster grows.
func ClusterByTime(sorted []Result, mergeThreshold float64) [][]Result {
	if len(sorted) == 0 {
		return nil
	}

	var clusters [][]Result
	current := []Result{sorted[0]}
	anchor := sorted[0].Time

	for _, r := range sorted[1:] {
		if r.Time-anchor <= mergeThreshold {
			current = append(current, r)
			continue
		}
		clusters = append(clusters, current)
		current = []Result{r}
		anchor = r.Time
	}
	return append(clusters, current)
}

func fuseCluster(cluster []Result, w Weights, agreementBonus float64) Result {
	if len(cluster) == 1 {
		return cluster[0]
	}

	var weightedTime, totalWeight, timeSum, maxConfidence float64
	contactVotes, liftOffVotes := 0, 0
	for _, r := range cluster {
		weight := w.For(r.Source) * r.Confidence
		weightedTime += r.Time * weight
		totalWeight += weight
		timeSum += r.Time
		maxConfidence = max(maxConfidence, r.Confidence)

		if r.IsContact {
			contactVotes++
		} else {
			liftOffVotes++
		}
	}

	t := timeSum / float64(len(cluster))
	if totalWeight > epsilon {
		t = weightedTime / totalWeight
	}

	bonus := float64(len(cluster)-1) * agreementBonus
	return Result{
		Time:       t,
		Confidence: clamp(maxConfidence+bonus, 0, 1),
		IsContact:  contactVotes >= liftOffVotes,
		Source:     Composite,
	}
}
