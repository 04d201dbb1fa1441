// Package analysis adapts the deep-analysis collaborator: it builds the
// per-track prompt (including memory context), calls chat-completion
// providers with ordered fallback, and runs calls out of line so their
// latency never blocks ingestion or smoothing.
//
// Completed calls are delivered as tracking.AnalysisResult messages; the
// owner of the tracker applies them by track identity.
package analysis
