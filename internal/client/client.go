// Package client implements a minimal protocol client. The server
// tests drive games through it, and it is handy for scripting a
// player from Go.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"tcpquiz-backend/api"
	"tcpquiz-backend/internal/protocol"
)

type Client struct {
	conn    net.Conn
	dec     protocol.Decoder
	buf     []byte
	pending []protocol.Message
	timeout time.Duration
}

// Dial connects to a quiz server. timeout bounds every subsequent
// read and write; zero means no deadline.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, timeout), nil
}

func NewClient(conn net.Conn, timeout time.Duration) *Client {
	return &Client{
		conn:    conn,
		buf:     make([]byte, 1024),
		timeout: timeout,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(v any) error {
	if c.timeout > 0 {
		deadline := time.Now().Add(c.timeout)
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	b, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(b)
	return err
}

// ReadMessage blocks until the next complete protocol message.
func (c *Client) ReadMessage() (protocol.Message, error) {
	for len(c.pending) == 0 {
		if c.timeout > 0 {
			deadline := time.Now().Add(c.timeout)
			if err := c.conn.SetReadDeadline(deadline); err != nil {
				return protocol.Message{}, err
			}
		}
		n, err := c.conn.Read(c.buf)
		if err != nil {
			return protocol.Message{}, err
		}
		c.pending = c.dec.Feed(c.buf[:n])
	}

	msg := c.pending[0]
	c.pending = c.pending[1:]
	return msg, nil
}

// Expect reads messages until one of the wanted type arrives. Any
// other type read along the way is discarded.
func (c *Client) Expect(msgType string) (json.RawMessage, error) {
	for {
		msg, err := c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msg.Type == msgType {
			return msg.Raw, nil
		}
	}
}

// Join registers a username and waits for the welcome message.
func (c *Client) Join(username string) (api.JoinedResponse, error) {
	req := api.JoinRequest{
		Type:     api.TypeJoin,
		Username: username,
	}
	if err := c.send(req); err != nil {
		return api.JoinedResponse{}, err
	}

	raw, err := c.Expect(api.TypeJoined)
	if err != nil {
		return api.JoinedResponse{}, fmt.Errorf("waiting for joined: %w", err)
	}

	var res api.JoinedResponse
	err = json.Unmarshal(raw, &res)
	return res, err
}

// Answer submits an answer for a question.
func (c *Client) Answer(questionID int, answer string, elapsed float64) error {
	return c.send(api.AnswerRequest{
		Type:       api.TypeAnswer,
		QuestionID: questionID,
		Answer:     answer,
		Time:       elapsed,
	})
}

// Send writes an arbitrary message, used to exercise protocol edge
// cases in tests.
func (c *Client) Send(v any) error {
	return c.send(v)
}

// SendRaw writes raw bytes as-is.
func (c *Client) SendRaw(b []byte) error {
	if c.timeout > 0 {
		deadline := time.Now().Add(c.timeout)
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	_, err := c.conn.Write(b)
	return err
}
