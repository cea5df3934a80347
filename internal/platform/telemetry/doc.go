// Package telemetry groups the operational observability of tracker processes.
//
// Engagement events published for downstream collaborators live in
// platform/events; this tree only holds non-mutating system observations
// such as request latency and toggle outcomes (telemetry/metrics).
package telemetry
