// Package sim provides the staged production-line simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - batch.go: Batch lifecycle (waiting → mixing → mixed → baking → baked → packing → completed)
//   - station.go: single-slot stations with a FIFO backlog
//   - transfer.go: the two-phase handoff between adjacent stations
//   - pipeline.go: the per-minute sweep and completion detection
//   - run.go: PipelineRun, the owned simulation object and its control surface
//
// # Timing
//
// Time is an integer number of simulation minutes. Each tick advances it by
// exactly one and runs one sweep of the Pipeline:
//  1. transfers due this minute move their batch into the next station
//  2. stations are evaluated packer, oven, mixer, so a slot freed downstream
//     can be refilled within the same minute
//  3. the run halts once every batch reached the completed set
//
// The Clock only decides how much wall-clock time passes between ticks
// (BaseInterval / speed); speed never changes simulation minutes.
//
// # Sub-packages
//   - sim/trace/: the append-only event log
//   - sim/promexport/: Prometheus collector over snapshots
package sim
