package protocol

import (
	"net"
	"sync"
)

// Conn wraps a net.Conn to serialize outbound message writes.
//
// The read side has a single owner, the connection handler, and needs
// no locking. Writes come from whichever component pushes a message
// to the participant, so they are mutex-guarded to keep lines whole.
type Conn struct {
	c  net.Conn
	mu sync.Mutex
}

func NewConn(c net.Conn) *Conn {
	return &Conn{c: c}
}

// WriteJSON encodes v and writes it as a single line.
func (c *Conn) WriteJSON(v any) error {
	b, err := Encode(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.c.Write(b)
	return err
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.c.Read(p)
}

func (c *Conn) Close() error {
	return c.c.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.c.RemoteAddr()
}
