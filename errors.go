package chainsnap

import "errors"

var (
	ErrConfig     = errors.New("chainsnap: invalid configuration")
	ErrConsumed   = errors.New("chainsnap: builder already consumed")
	ErrTransport  = errors.New("chainsnap: transport failure")
	ErrSnapshotIO = errors.New("chainsnap: snapshot io")
	ErrDecode     = errors.New("chainsnap: malformed snapshot")
)
