package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDeliversLines(t *testing.T) {
	var got []string
	handler := func(line string, reply func(string)) {
		got = append(got, line)
		reply("ok " + line)
	}

	var out bytes.Buffer
	c := New(strings.NewReader("START\nSTOP\n"), &out, handler)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"START", "STOP"}, got)
	assert.Equal(t, "ok START\nok STOP\n", out.String())
}

func TestRunStripsCRAndBlankLines(t *testing.T) {
	var got []string
	handler := func(line string, reply func(string)) { got = append(got, line) }

	c := New(strings.NewReader("CONFIG\r\n\r\n  \nHELP\n"), &bytes.Buffer{}, handler)
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"CONFIG", "HELP"}, got)
}

func TestRunHandlesSplitReads(t *testing.T) {
	// iotest-style one-byte reader exercises line reassembly.
	var got []string
	handler := func(line string, reply func(string)) { got = append(got, line) }

	c := New(oneByteReader{strings.NewReader("POS2:50\n")}, &bytes.Buffer{}, handler)
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"POS2:50"}, got)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(strings.NewReader(""), &bytes.Buffer{}, func(string, func(string)) {})
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}

func TestWriteSerialized(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out, func(string, func(string)) {})

	n, err := c.Write([]byte("1.000 2.000\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, "1.000 2.000\n", out.String())
}

type oneByteReader struct {
	r *strings.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	return o.r.Read(p[:1])
}
