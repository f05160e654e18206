// Package objectstore is a thin client over an S3-compatible object
// store used to archive finished recording segments.
package objectstore

import "errors"

// ErrPut is the sentinel wrapped by every Put failure, regardless of
// whether it came from the transport, the service, or a bad argument.
// Use errors.Is(err, objectstore.ErrPut) to check.
var ErrPut = errors.New("objectstore: put failed")
