package printer

import "errors"

// Error kinds. Every error returned by a Session or Pool wraps exactly one of
// these (transport failures wrap both ErrIO and ErrConnectionFailed), so
// callers classify failures with errors.Is.
var (
	ErrMissingArguments = errors.New("missing connection address or printer type")
	ErrConnectionFailed = errors.New("could not connect to printer")
	ErrNotFound         = errors.New("printer not found")
	ErrEncoding         = errors.New("text cannot be encoded in the selected code page")
	ErrBarcodeSize      = errors.New("barcode size out of range")
	ErrBarcodeContent   = errors.New("barcode content not valid for symbology")
	ErrQRCode           = errors.New("qr code cannot be encoded")
	ErrIO               = errors.New("i/o error")
)

// Causes wrapped by the kinds above
var (
	ErrTimeout      = errors.New("operation timed out")
	ErrClosed       = errors.New("printer connection closed")
	ErrNotSupported = errors.New("operation not supported on this platform")
)
