// Package benchmark contains performance benchmarks for the CacheMesh
// cluster engine: consistent-hash construction and transformation, and
// segment owner lookups.
package benchmark
