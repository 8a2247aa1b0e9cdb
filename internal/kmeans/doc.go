// Package kmeans implements seeded k-means clustering over 3D color
// coordinates using Lloyd's algorithm with a bounded number of restarts.
package kmeans
