// Package lantern provides the page-load performance simulator and metrics
// engine at the core of a Lighthouse-style auditing pipeline.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - request.go, traceevent.go: typed inputs (one network request, one
//     trace event) and their derived fields.
//   - node.go, graph.go: the dependency graph built from those inputs.
//   - builder.go: wires requests and trace events into a graph.
//   - simulator.go: the discrete-event scheduler that walks the graph
//     under throttling to produce per-node timings.
//
// # Architecture
//
// Supporting network models live alongside the graph:
//   - tcpconnection.go: one TCP(+TLS+H2) connection's congestion-window
//     and bandwidth-limited delivery model.
//   - dnscache.go: per-host first-resolution memoization.
//   - connectionpool.go: per-origin connection allocation.
//   - networkanalyzer.go: RTT/server-response-time estimation from
//     observed records.
//
// Metric derivation (optimistic/pessimistic subgraphs, simulation,
// combination) lives in the lantern/metrics subpackage. Devtools-log
// ingestion lives in lantern/recorder.
package lantern
