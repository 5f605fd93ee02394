// Package rebalance implements the cluster rebalance policy.
package rebalance

import "github.com/yndnr/cachemesh-go/internal/core/domain"

// Policy error codes.
var (
	// ErrStaleConfirmation indicates a rebalance confirmation whose
	// topology id does not match the outstanding rebalance. The cache
	// state is left untouched.
	ErrStaleConfirmation = domain.NewDomainError("CM-TOPO-4090", "rebalance confirmation does not match the outstanding rebalance")
)
