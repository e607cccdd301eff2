package core

import "errors"

var (
	// ErrEmptyPeakSet is returned when a view is read while the active peak set is empty
	ErrEmptyPeakSet = errors.New("peak set is empty, run Process first")

	// ErrIndexNotBuilt is returned when the nominal-mass index is queried before it was built
	ErrIndexNotBuilt = errors.New("nominal mass index not built, run Process first")

	// ErrSizeMismatch is returned when calibrated m/z values do not line up with the picked peaks
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrNoiseNotEstimated is returned when profile peaks are picked before noise estimation
	ErrNoiseNotEstimated = errors.New("noise not estimated")

	// ErrPositionOutOfRange is returned for a peak position outside the addressed collection
	// or repeated within one request
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrNotPicked is returned when peak-level data is written before peaks were picked
	ErrNotPicked = errors.New("peaks not picked, run Process first")

	// ErrProfileDiscarded is returned when the raw arrays are needed after Process discarded them
	ErrProfileDiscarded = errors.New("profile discarded, process with KeepProfile to reuse it")
)
