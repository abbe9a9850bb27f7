package webhook

import "errors"

var (
	ErrMissingSignature    = errors.New("webhook: missing signature header")
	ErrSignature           = errors.New("webhook: signature verification failed")
	ErrMalformedPayload    = errors.New("webhook: malformed payload")
	ErrPayloadTooLarge     = errors.New("webhook: payload too large")
	ErrIntegration         = errors.New("webhook: incomplete provider payload")
	ErrLinkageUnresolved   = errors.New("webhook: no user linked to customer")
	ErrLinkageDeadline     = errors.New("webhook: deadline reached while resolving customer")
	ErrIllegalTransition   = errors.New("webhook: illegal delivery state transition")
	ErrUnsupportedProvider = errors.New("webhook: unsupported billing provider")
	ErrHandlerPanic        = errors.New("webhook: handler panicked")
)

// IsSignatureError reports whether err means the delivery could not be trusted.
func IsSignatureError(err error) bool {
	return errors.Is(err, ErrSignature) || errors.Is(err, ErrMissingSignature)
}
