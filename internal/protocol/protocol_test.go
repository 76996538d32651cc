package protocol_test

import (
	"net"
	"testing"

	"tcpquiz-backend/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAppendsDelimiter(t *testing.T) {
	b, err := protocol.Encode(map[string]string{"type": "join", "username": "bob"})
	require.NoError(t, err)

	assert.Equal(t, byte('\n'), b[len(b)-1])
	assert.JSONEq(t, `{"type":"join","username":"bob"}`, string(b[:len(b)-1]))
}

func TestFeedPartialChunks(t *testing.T) {
	dec := protocol.Decoder{}

	msgs := dec.Feed([]byte(`{"type":"join","use`))
	assert.Empty(t, msgs)

	msgs = dec.Feed([]byte("rname\":\"bob\"}\n"))
	require.Len(t, msgs, 1)
	assert.Equal(t, "join", msgs[0].Type)
	assert.JSONEq(t, `{"type":"join","username":"bob"}`, string(msgs[0].Raw))
	assert.Zero(t, dec.Buffered())
}

func TestFeedMultipleMessagesInOneChunk(t *testing.T) {
	dec := protocol.Decoder{}

	msgs := dec.Feed([]byte("{\"type\":\"join\",\"username\":\"a\"}\n{\"type\":\"answer\",\"question_id\":1}\n"))
	require.Len(t, msgs, 2)
	assert.Equal(t, "join", msgs[0].Type)
	assert.Equal(t, "answer", msgs[1].Type)
}

func TestFeedSkipsMalformedLines(t *testing.T) {
	dec := protocol.Decoder{}

	msgs := dec.Feed([]byte("not json at all\n\n{\"type\":\"join\",\"username\":\"bob\"}\n"))
	require.Len(t, msgs, 1)
	assert.Equal(t, "join", msgs[0].Type)
}

func TestFeedDropsOverlongLine(t *testing.T) {
	dec := protocol.Decoder{MaxLineBytes: 16}

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'x'
	}
	assert.Empty(t, dec.Feed(long))
	assert.Zero(t, dec.Buffered())

	// The rest of the oversized line is discarded up to its
	// delimiter, then framing resumes.
	msgs := dec.Feed([]byte("xxxx\n{\"type\":\"a\"}\n"))
	require.Len(t, msgs, 1)
	assert.Equal(t, "a", msgs[0].Type)
}

func TestConnWriteJSON(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	conn := protocol.NewConn(left)

	done := make(chan error, 1)
	go func() {
		done <- conn.WriteJSON(map[string]string{"type": "joined"})
	}()

	buf := make([]byte, 256)
	n, err := right.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)

	dec := protocol.Decoder{}
	msgs := dec.Feed(buf[:n])
	require.Len(t, msgs, 1)
	assert.Equal(t, "joined", msgs[0].Type)
}
