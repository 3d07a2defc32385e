package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrEmailTaken    ErrCode = "EMAIL_TAKEN"
	ErrPromptMissing ErrCode = "PROMPT_MISSING"
	ErrHexCodeTaken  ErrCode = "HEXCODE_CONFLICT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the user-facing German message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "E-Mail oder Passwort ist falsch."
	case ErrSessionInvalidated:
		return "Ihre Sitzung ist abgelaufen. Bitte melden Sie sich erneut an."
	case ErrTokenRequired:
		return "Anmeldung erforderlich."
	case ErrTokenInvalid:
		return "Ungültiges oder abgelaufenes Anmelde-Token."
	case ErrValidation:
		return "Eingabe ungültig. Bitte überprüfen Sie Ihre Angaben."
	case ErrInvalidPayload:
		return "Ungültiges Anfrageformat."
	case ErrNotFound:
		return "Prüfung konnte nicht gefunden werden."
	case ErrEmailTaken:
		return "Diese E-Mail-Adresse ist bereits registriert."
	case ErrPromptMissing:
		return "Für dieses Fach ist keine Prompt-Vorlage hinterlegt."
	case ErrHexCodeTaken:
		return "Es konnte kein eindeutiger Prüfungscode erzeugt werden. Bitte versuchen Sie es erneut."
	case ErrRateLimitExceeded:
		return "Zu viele Anfragen. Bitte versuchen Sie es später erneut."
	case ErrInternal:
		return "Ein interner Serverfehler ist aufgetreten."
	default:
		return "Ein unbekannter Fehler ist aufgetreten."
	}
}
