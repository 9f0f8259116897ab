package shellio

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHExec is the backend for ConnSSH sectors: an interactive remote shell
// over a PTY-requesting SSH session. Grounded on tools/si's
// dialPaasSSHClient/buildPaasSSHClientConfig/buildPaasHostKeyCallback: same
// known_hosts-trust-on-first-use policy. Authentication uses a running
// ssh-agent only; no key file or password is tried.
type SSHExec struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

// Dial opens host:port, authenticates as user, requests a PTY sized rows x
// cols, and starts an interactive shell.
func Dial(host string, port int, user string, rows, cols uint16) (*SSHExec, error) {
	config, err := buildClientConfig(user)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, err
	}
	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := session.RequestPty("xterm-256color", int(rows), int(cols), ssh.TerminalModes{}); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	return &SSHExec{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

func buildClientConfig(user string) (*ssh.ClientConfig, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, errors.New("ssh user required")
	}
	methods := resolveAuthMethods()
	if len(methods) == 0 {
		return nil, errors.New("no ssh auth methods available")
	}
	hostKeyCallback, err := hostKeyCallback()
	if err != nil {
		return nil, err
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

// resolveAuthMethods prefers a running ssh-agent, matching how an
// interactive terminal tool normally authenticates without prompting.
func resolveAuthMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
		}
	}
	return methods
}

func hostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	knownHostsPath := filepath.Join(home, ".ssh", "known_hosts")
	if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0o700); err != nil {
		return nil, err
	}
	if _, err := os.Stat(knownHostsPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0o600); err != nil {
			return nil, err
		}
	}
	validator, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := validator(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			return appendKnownHost(knownHostsPath, hostname, key)
		}
		return err
	}, nil
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	normalized := knownhosts.Normalize(hostname)
	line := knownhosts.Line([]string{normalized}, key)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func (s *SSHExec) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *SSHExec) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *SSHExec) Resize(rows, cols uint16) error {
	return s.session.WindowChange(int(rows), int(cols))
}

func (s *SSHExec) Wait() error { return s.session.Wait() }

func (s *SSHExec) Close() error {
	_ = s.session.Close()
	return s.client.Close()
}
