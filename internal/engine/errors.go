package engine

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion indicates a .decsync-info file announcing a layout
// version this package cannot read.
var ErrUnsupportedVersion = errors.New("unsupported decsync version")

// ErrMalformedInfo indicates a .decsync-info file that is not valid JSON.
var ErrMalformedInfo = errors.New("malformed .decsync-info")

// BucketError records a failure to replay one remote bucket.
//
// Replay never returns a BucketError; it logs it, leaves the bucket's consumed
// sequence unchanged and lists it in ReplayReport.Failures.
type BucketError struct {
	// AppID is the remote app whose bucket failed.
	AppID string

	// Hash is the bucket name.
	Hash string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *BucketError) Error() string {
	return fmt.Sprintf("replay %s/%s: %v", e.AppID, e.Hash, e.Err)
}

// Unwrap returns the underlying error.
func (e *BucketError) Unwrap() error {
	return e.Err
}
