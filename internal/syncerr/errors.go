package syncerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the run handles it: config and startup
// failures are fatal, remote-call failures cost one artifact, validation
// failures cost one finding.
type Kind uint8

const (
	// KindConfig is a missing or invalid configuration value. Fatal, exit 2.
	KindConfig Kind = iota + 1
	// KindIO is an unreadable or undecodable exclusion file. Fatal, exit 1.
	KindIO
	// KindClientInit is a scanner or tracker client that could not be
	// constructed. Fatal, exit 1.
	KindClientInit
	// KindRemoteCall is a failed search, create or link call. The affected
	// artifact is abandoned and the run continues.
	KindRemoteCall
	// KindValidation is a malformed finding record. The single finding is
	// skipped and the artifact continues.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindClientInit:
		return "client_init"
	case KindRemoteCall:
		return "remote_call"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error captures contextual information for reconciliation failures.
type Error struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs an Error with the provided context.
func E(op string, kind Kind, msg string, err error) error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of the first Error in err's chain, or zero when
// the chain carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err's chain carries an Error of kind k.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// ExitCode maps err to the process exit code for fatal failures. Missing or
// invalid configuration exits 2, everything else 1.
func ExitCode(err error) int {
	if KindOf(err) == KindConfig {
		return 2
	}
	return 1
}
