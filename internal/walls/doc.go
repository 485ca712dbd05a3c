// Package walls converts a scene's wall segments into the output format's
// polyline walls. Segments are classified into a wall category from their
// movement and perception restrictions, then greedily chained: a segment
// whose start point matches the tail of an already-emitted wall of a
// compatible kind extends that wall's polyline instead of starting a new
// one.
package walls
