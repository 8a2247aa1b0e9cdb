// Package diff computes CIEDE2000 perceptual differences for a row range
// of samples against either their cluster centroids or a single designated
// reference point.
package diff
