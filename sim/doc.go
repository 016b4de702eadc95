// Package sim provides the steady-state engine for comminution flowsheets.
//
// # Reading Guide
//
// Start with these files to understand a run:
//   - graph.go: flowsheet topology, validation, and the topological order with recycle detection
//   - stream.go: the material flow carried on each edge
//   - executor.go: the sequential pass and the recycle iteration loop
//
// # Architecture
//
// The sim package defines the unit contract and the engine; implementations
// live in sub-packages:
//   - sim/psd/: particle size distribution value type
//   - sim/unit/: feed, product, crusher, mill, hydrocyclone and screen models
//   - sim/flowsheet/: YAML flowsheet descriptions
//   - sim/trace/: per-iteration convergence trace
//
// sim/unit registers its factory via init(), which sets the package-level
// NewUnitModelFunc. Anything that builds an Executor must import sim/unit,
// directly or through sim/flowsheet.
//
// # Key Interfaces
//
//   - UnitModel: turns the streams arriving at a node into output streams and KPIs
package sim
