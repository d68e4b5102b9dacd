// Package lock ensures only a single instance runs at once.
package lock

import (
	"errors"
	"net"
	"runtime"
)

var ErrLocked = errors.New("another instance is already running")

// Lock holds an abstract unix socket for as long as the process keeps it open. The kernel
// releases the name when the process exits, so a crashed instance never leaves a stale lock.
type Lock struct {
	listener net.Listener
}

// Acquire takes the lock called name.
func Acquire(name string) (*Lock, error) {
	if runtime.GOOS != "linux" {
		return nil, errors.ErrUnsupported
	}

	listener, err := net.Listen("unix", "@"+name)
	if err != nil {
		return nil, errors.Join(err, ErrLocked)
	}

	return &Lock{listener: listener}, nil
}

func (l *Lock) Release() error {
	return l.listener.Close()
}
