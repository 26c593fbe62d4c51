// Package analysis provides the security classification core of Sentinel.
// It defines the Engine (normalization, detector fan-in, confidence
// composition, deduplication), the immutable pattern library the detectors
// scan with, and the AuxiliaryDetector extension point for an optional
// LLM-backed classifier.
package analysis
