// Package domain models crisis-report triage: the inbound report, the
// per-stage scoring results, and the assembled analysis record.
//
// # Stages
//
// A report flows through five scoring stages, each producing a typed result:
//
//	detection       → is this a crisis at all? (DetectionResult)
//	classification  → which kind of crisis? (TypeResult)
//	severity        → how bad along four dimensions? (SeverityResult)
//	urgency         → how soon must someone act? (UrgencyResult)
//	priority        → one fused score and level for ranking (PriorityResult)
//
// Non-crisis reports stop after detection; their AnalysisRecord carries only
// the detection result, a message, and the location block.
//
// # Score conventions
//
// Every score is a float64 in [0, 1]. Levels and types come from closed
// enumerations ([CrisisType], [UrgencyLevel], [PriorityLevel]); scores are
// rounded to three decimals before leaving the scoring packages.
//
// Priority levels use ascending thresholds:
//
//	< 0.3 VERY LOW | < 0.6 LOW | < 0.8 MEDIUM | < 0.9 HIGH | ≥ 0.9 CRITICAL
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of text|source|location, so the
// same report analyzed twice yields the same key on the sink topic and
// downstream consumers can deduplicate without coordination. See [RecordID].
package domain
