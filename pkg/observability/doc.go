/*
Package observability turns conversation lifecycle events into metrics and
audit logs.

Metrics exposes Prometheus counters for session starts, transitions,
fallbacks and ends. LogHooks writes the same events to a structured logger.
Both produce domain.Hooks, which Combine merges for the conversation layer.
*/
package observability
