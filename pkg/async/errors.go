package async

import "errors"

var ErrTimeout = errors.New("await timed out")
