// Package frontendsocket is a raw, uninterpreted pipe onto the
// `frontend-socket` hint (§4.5, §9): a path to a Unix-domain socket an
// interactive front-end is already listening on. The core never
// interprets the bytes exchanged over it (spec.md §9 "the core does
// not interpret the protocol") — this package only hands a backend an
// already-connected net.Conn.
package frontendsocket

import (
	"context"
	"fmt"
	"net"
)

// Dial connects to the Unix-domain socket at path. The returned
// connection is the backend's to read and write freely; closing it is
// the backend's responsibility once its interactive exchange is done.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("frontendsocket: dial %s: %w", path, err)
	}
	return conn, nil
}
