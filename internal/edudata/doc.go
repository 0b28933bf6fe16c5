// Package edudata is the client for the education statistics API and
// the local snapshot cache backing it.
//
// The provider exposes district-level datasets as paginated REST
// collections. A DatasetRequest names one collection (level, source,
// topic, optional subtopic and year); the Client walks every page of
// the Django-style envelope and returns typed rows:
//
//	FinanceRow      district revenue totals and adjustment components
//	EnrollmentRow   enrollment counts cross-tabulated by race/sex/grade
//	DirectoryRow    district names and state membership
//	CostIndexRow    geographic cost-of-living index
//
// Numeric fields carry NCES-style suppression codes (-1 missing, -2 not
// applicable, -3 suppressed). These are scrubbed to NaN at decode time
// so that downstream processing can distinguish "no data" from a true
// zero; rows with NaN are excluded and counted in the linker, never
// defaulted.
//
// The Cache persists one CSV snapshot per dataset and year under the
// cache directory, letting repeat runs skip the network entirely. NaN
// round-trips as an empty cell.
package edudata
