package result

import "errors"

// Result is the outcome of a delivery attempt. A failed Result carries a
// human-readable diagnostic in Message.
type Result struct {
	OK      bool
	Message string
}

func Succeed() Result {
	return Result{OK: true}
}

func Failed(message string) Result {
	return Result{OK: false, Message: message}
}

// Error returns nil for a successful Result.
func (r Result) Error() error {
	if r.OK {
		return nil
	}
	return errors.New(r.Message)
}
