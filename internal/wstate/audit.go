package wstate

// Audit event names the Brain Dispatcher logs for the deep-inspection
// lifecycle (spec §4.D). Defined here, next to the gate they describe, so
// brainsrv never has to spell the strings itself.
const (
	AuditDeepInspectionEnabled  = "DeepInspectionEnabled"
	AuditDeepInspectionAccessed = "DeepInspectionAccessed"
	AuditDeepInspectionDisabled = "DeepInspectionDisabled"
)
