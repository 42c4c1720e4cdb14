package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// WriteTxOwnership says who opens and commits the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: every write method runs in its own transaction
	// and callers never pass one in.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate performs.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped allows only the reads a write needs to decide
	// its invariants. Listings and dashboards stay in services.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries keeps broad read-model queries on table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// CourseLock is the row lock an aggregate's writes take on the course before
// touching anything else in it. Taking it first gives every write a single
// lock order.
type CourseLock string

const (
	// CourseLockUpdate is FOR UPDATE: the write changes the course row or its
	// tree and excludes every other course write.
	CourseLockUpdate CourseLock = "update"
	// CourseLockShare is FOR SHARE: learner writes on one course run side by
	// side but never overlap a content edit.
	CourseLockShare CourseLock = "share"
)

// Contract describes the transactional policy of one aggregate.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	CourseLock       CourseLock
	Notes            string
}

// Aggregate is implemented by every aggregate.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx reports whether write transactions are owned by
// the aggregate.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Validate rejects contracts with a missing name or unknown policy values.
func (c Contract) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("contract has no name"))
	}
	if !c.RequiresAggregateOwnedTx() {
		errs = append(errs, fmt.Errorf("%s: write tx ownership %q", c.Name, c.WriteTxOwnership))
	}
	switch c.ReadPolicy {
	case ReadPolicyInvariantScoped, ReadPolicyTableRepoQueries:
	default:
		errs = append(errs, fmt.Errorf("%s: read policy %q", c.Name, c.ReadPolicy))
	}
	switch c.CourseLock {
	case CourseLockUpdate, CourseLockShare:
	default:
		errs = append(errs, fmt.Errorf("%s: course lock %q", c.Name, c.CourseLock))
	}
	return errors.Join(errs...)
}
