package email

// Provider is the outbound email collaborator. Implementations must be safe
// for concurrent use; the auth service dispatches through goroutines.
type Provider interface {
	// SendVerificationEmail delivers the email-verification link for token.
	SendVerificationEmail(to, token string) error

	// SendPasswordResetEmail delivers the password-reset link for token.
	SendPasswordResetEmail(to, token string) error

	// Close releases provider resources.
	Close() error
}
