// Package shellio drives the actual shell process behind a hub — local PTY,
// Docker container exec, SSH session, or a remote websocket relay — behind
// one Backend interface so the rest of the Brain never needs to know which
// kind of connection a sector uses (spec §4.A, §4.E connection types).
package shellio

import "io"

// Backend is a live, resizable, killable shell connection. Read/Write move
// raw bytes; the caller is responsible for framing (oscparse sits on top of
// Read's output).
type Backend interface {
	io.Reader
	io.Writer
	Resize(rows, cols uint16) error
	Wait() error
	Close() error
}
