// Package assert reports programmer errors: broken invariants, invalid entity handles, exceeded
// capacities, recursive job scheduling. Normal builds panic with a descriptive message so the
// failure surfaces under a debugger or in tests. Builds tagged `release` compile every check
// to a no-op, trading safety for zero-overhead hot paths.
package assert
