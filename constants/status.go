package constants

// ParseStatus is the canonical status reported for one statement parse.
type ParseStatus string

const (
	ParseStatusOK       ParseStatus = "OK"
	ParseStatusDegraded ParseStatus = "REDACTION_SKIPPED" // text recovered, visual redaction unavailable
	ParseStatusFailed   ParseStatus = "FAILED"
)
