package email

// TemporaryError marks a failure that may succeed later (network timeout,
// SMTP 4xx, provider throttling). Nothing retries here; the marker only
// feeds logs and metrics.
type TemporaryError struct {
	msg string
	err error
}

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }
func (e TemporaryError) Permanent() bool { return false }
func (e TemporaryError) Unwrap() error   { return e.err }

// PermanentError marks a failure that will not go away on its own
// (rejected message, unverified sender, bad credentials).
type PermanentError struct {
	msg string
	err error
}

func (e PermanentError) Error() string   { return e.msg }
func (e PermanentError) Permanent() bool { return true }
func (e PermanentError) Unwrap() error   { return e.err }

func temporary(msg string, err error) error {
	if err != nil {
		msg += ": " + err.Error()
	}
	return TemporaryError{msg: msg, err: err}
}

func permanent(msg string, err error) error {
	if err != nil {
		msg += ": " + err.Error()
	}
	return PermanentError{msg: msg, err: err}
}
