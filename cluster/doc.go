// Package cluster partitions a row range of complete color samples into k
// groups by 3D coordinate proximity and records each retained sample's
// cluster id and centroid.
package cluster
