package shellio

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Local is a PTY-attached shell process, the backend for ConnLocal sectors.
// Grounded on tools/codex-interactive-driver's runner: exec.Command feeding
// pty.Start, with the caller owning the read loop instead of this package.
type Local struct {
	cmd  *exec.Cmd
	ptmx *os.File
}

// NewLocal starts name (default "bash -lc <command>"-style invocation is
// left to the caller via args) attached to a PTY sized rows x cols.
func NewLocal(name string, args []string, rows, cols uint16) (*Local, error) {
	cmd := exec.Command(name, args...)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, err
	}
	return &Local{cmd: cmd, ptmx: ptmx}, nil
}

func (l *Local) Read(p []byte) (int, error)  { return l.ptmx.Read(p) }
func (l *Local) Write(p []byte) (int, error) { return l.ptmx.Write(p) }

func (l *Local) Resize(rows, cols uint16) error {
	return pty.Setsize(l.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

func (l *Local) Wait() error { return l.cmd.Wait() }

func (l *Local) Close() error {
	_ = l.ptmx.Close()
	if l.cmd.Process != nil {
		_ = l.cmd.Process.Kill()
	}
	return nil
}
