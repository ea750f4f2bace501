package logging

const (
	// FieldComponent names the subsystem emitting the record.
	FieldComponent = "component"
	// FieldRunID is the composition run identifier.
	FieldRunID = "run_id"
	// FieldStage is the pipeline stage (load, match, reconcile, plan, execute).
	FieldStage = "stage"
	// FieldLabel is a window label.
	FieldLabel = "label"
	// FieldIdentifier is an asset identifier such as 01_intro.mp4.
	FieldIdentifier = "identifier"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldDecisionType tags records that explain a pipeline choice.
	FieldDecisionType = "decision_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags records that should stand out.
	FieldAlert = "alert"
)
