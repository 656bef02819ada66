//go:build !linux && !windows

package discovery

import "context"

// Paired is not available here; use SerialPorts instead
func Paired(ctx context.Context) ([]Device, error) {
	return nil, ErrNotSupported
}
