// Package aggregates defines domain-facing aggregate contracts for the course
// marketplace: enrollment, course authoring, progress and reviews.
//
// These contracts avoid persistence/transport details and mark the write
// boundaries where invariants must hold atomically.
package aggregates
