package wstate

import "fmt"

// Kind is the error taxonomy shared by the state model, the security
// interceptor, and the dispatcher (spec §7).
type Kind string

const (
	KindMalformed         Kind = "Malformed"
	KindUnknownVerb       Kind = "UnknownVerb"
	KindNotFound          Kind = "NotFound"
	KindPrecondition      Kind = "Precondition"
	KindPrivilegeRequired Kind = "PrivilegeRequired"
	KindIO                Kind = "Io"
	KindPattern           Kind = "Pattern"
)

// Error is a classified error: every failure path inside the Brain returns
// one of these so the dispatcher can render it as "ERROR: <kind>: <detail>"
// without ever needing to string-match an error message.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError constructs a classified Error with a formatted detail.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
