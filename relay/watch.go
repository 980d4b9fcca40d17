package relay

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"time"
)

// errClientDisconnected is the cancellation cause of a session whose browser
// closed its connection.
var errClientDisconnected = errors.New("client disconnected")

// watchConn calls onClose when the peer of conn closes the connection. Chat
// responses are sent with "Connection: close", so nothing else reads from
// conn while the watch runs. The returned stop func ends the watch; onClose
// is never called after stop returns.
//
// Only socket-backed connections are watched. The in-memory connections
// used by fiber's app.Test report EOF as soon as the request is consumed.
func watchConn(conn net.Conn, onClose func()) (stop func()) {
	done := make(chan struct{})
	var mu sync.Mutex
	stopped := false

	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		stopped = true
		close(done)
		if conn != nil {
			// Unblocks the pending Read; the connection closes right after.
			_ = conn.SetReadDeadline(time.Now())
		}
	}

	if !socketBacked(conn) {
		return stop
	}

	go func() {
		buf := make([]byte, 512)
		for {
			_, err := conn.Read(buf)
			if err == nil {
				// Bytes after the request are ignored: the connection is
				// closed once the response ends.
				continue
			}

			select {
			case <-done:
				return
			default:
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				// A server read timeout, not the browser leaving.
				_ = conn.SetReadDeadline(time.Time{})
				continue
			}

			mu.Lock()
			if !stopped {
				onClose()
			}
			mu.Unlock()
			return
		}
	}()

	return stop
}

func socketBacked(conn net.Conn) bool {
	switch c := conn.(type) {
	case nil:
		return false
	case syscall.Conn:
		return true
	case interface{ NetConn() net.Conn }:
		return socketBacked(c.NetConn())
	}
	return false
}
