package daemon

import (
	"net"
	"os"
	"time"

	"github.com/grovetools/sessiond/config"
	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/pkg/paths"
)

// New returns a Client that uses the daemon when its socket answers,
// falling back to an in-process LocalClient otherwise.
//
// This is the "transparent daemon" pattern: callers don't need to know
// whether sessiond is running. The same API works in both modes.
func New(cfg *config.Config) Client {
	socketPath := paths.SocketPath()
	if _, err := os.Stat(socketPath); err == nil {
		conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			if client, err := NewRemoteClient(socketPath); err == nil {
				return client
			}
		}
	}

	return NewLocalClient(cfg)
}

// Connect returns a RemoteClient or an error when the daemon is not
// reachable. Use it where the daemon is required, such as streaming.
func Connect() (Client, error) {
	client, err := NewRemoteClient(paths.SocketPath())
	if err != nil {
		return nil, err
	}
	if !client.IsRunning() {
		client.Close()
		return nil, sderr.DaemonNotRunning(paths.SocketPath())
	}
	return client, nil
}
