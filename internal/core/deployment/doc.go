// Package deployment composes the per-request deployment of a portal.
//
// This package contains the functional core logic for turning the registry's
// manifests into the filtered view delivered to one client. All functions are
// pure (no I/O, no side effects); the only outside state consulted is what the
// injected filters look up.
//
// # Algorithm
//
// For each manifest, in registry order:
//
//   - every manifest filter must accept it, otherwise it is dropped
//   - its features are scanned in declaration order; a feature is kept when
//     every feature filter accepts it and, if the client described itself,
//     the client constraints match
//   - route features are deduplicated by path, other features by id; the
//     first kept feature wins
//
// The stored manifests are never modified. Each call builds new manifests
// holding new feature slices.
//
// # Usage
//
// The imperative shell builds one Composer at startup and calls it per request:
//
//	composer := deployment.NewComposer(deployment.Config{
//	    Manifests:      registry,
//	    FeatureFilters: filter.Defaults(permissions, features),
//	})
//	result, err := composer.Compute(ctx, request)
package deployment
