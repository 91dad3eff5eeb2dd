// Package engine ties the name index, resolver, scheduler, outcome tracker and
// policy together into a run-scoped Coordinator. Hosts create one coordinator
// per test session, register the collected items, reorder them with Order,
// ask Check before running each item and feed stage results back through
// RecordStage. A coordinator is an explicit handle: nested sessions create
// their own instead of sharing one.
package engine
