// Package contact detects foot contact and lift-off events from sampled
// bone trajectories.
//
// Responsibilities: pelvis-line crossing, velocity minima, curvature
// saliency, and weighted composite fusion of the three.
// Key types: Sample, Trajectory, Result, Params, Detector.
//
// Every detector is a pure function of its input samples and Params.
// Insufficient input yields an empty result list, never an error.
// No I/O, logging of results, or marker writing happens in this package.
package contact
