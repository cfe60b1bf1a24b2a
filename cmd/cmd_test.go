package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertID(t *testing.T) {
	got, err := convertID("BV17x411w7KC")
	require.NoError(t, err)
	assert.Equal(t, "av170001", got)

	for _, in := range []string{"170001", "av170001", "AV170001"} {
		got, err = convertID(in)
		require.NoError(t, err)
		assert.Equal(t, "BV17x411w7KC", got)
	}

	_, err = convertID("hello")
	assert.Error(t, err)
	_, err = convertID("0")
	assert.Error(t, err)
}

func TestBvidCommand(t *testing.T) {
	buf := &bytes.Buffer{}
	bvidCmd.SetOut(buf)
	require.NoError(t, bvidCmd.RunE(bvidCmd, []string{"BV17x411w7KC", "av170001"}))
	assert.Equal(t, "BV17x411w7KC\tav170001\nav170001\tBV17x411w7KC\n", buf.String())
}

func TestRootShowVersion(t *testing.T) {
	old := showVersion
	defer func() { showVersion = old }()
	Version = "1.2.3"

	showVersion = true
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	require.NoError(t, rootCmd.RunE(rootCmd, nil))
	assert.Contains(t, buf.String(), "bilisub 版本：1.2.3")
}

func TestTranscribeRequiresInput(t *testing.T) {
	old := transcribeBvid
	defer func() { transcribeBvid = old }()
	transcribeBvid = ""
	assert.Error(t, transcribeCmd.RunE(transcribeCmd, nil))
}

func TestRunServerShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	server := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, server) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
