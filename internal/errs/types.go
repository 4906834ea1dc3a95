package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// InsufficientBalanceError means the source account cannot fund the transfer
// this cycle. Non-fatal: the rule is skipped and no transaction is created.
type InsufficientBalanceError struct {
	ErrorMessage
}

// MalformedRuleError means a stored rule's parameters don't match its type.
type MalformedRuleError struct {
	ErrorMessage
}

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewInsufficientBalanceError(message string) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewMalformedRuleError(message string) *MalformedRuleError {
	return &MalformedRuleError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}
