// Package sim supplies the synthetic behavior that makes demo traces look
// realistic: randomized sub-operation latency, cache hit/miss decisions, and
// occasional injected failures.
//
// Each Simulator owns its random source, so instances can be seeded for
// deterministic tests and concurrent services never contend on a global
// generator. Latency is the only suspension point and sleeps per-goroutine;
// it never pauses other requests.
package sim
