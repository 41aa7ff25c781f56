package classifier

import "errors"

// ErrInvalidPattern is returned by New when a configured regex or
// expr-lang rule fails to compile.
var ErrInvalidPattern = errors.New("classifier: invalid configured pattern")
