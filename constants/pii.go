package constants

// PIIKind is the reason category attached to a flagged fragment.
type PIIKind string

// Stable values (these exact strings appear in logs and debug output).
const (
	PIIAccountNumber PIIKind = "ACCOUNT_NUMBER" // 8+ digit account-like runs
	PIIEmail         PIIKind = "EMAIL"
	PIIPhone         PIIKind = "PHONE"
	PIICardNumber    PIIKind = "CARD_NUMBER" // 16-digit grouped card numbers
	PIICustomWord    PIIKind = "CUSTOM_WORD" // caller-supplied denylist hit
	PIINameLabel     PIIKind = "NAME_LABEL"  // "name:", "customer:", ... prefixes
)
