package main

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tabletctl/internal/driversim"
	"github.com/danmuck/tabletctl/internal/protocol/desc"
	"github.com/danmuck/tabletctl/internal/routing"
	"github.com/danmuck/tabletctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSim(t *testing.T) string {
	t.Helper()
	sim := driversim.NewServer(driversim.Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sim.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestCLIAgainstSimulator(t *testing.T) {
	testlog.Start(t)
	addr := startSim(t)
	target := []string{"--network", "tcp", "--socket", addr, "--timeout", "2s"}

	out, err := run(t, append([]string{"tablets", "count"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	out, err = run(t, append([]string{"tablets", "transducers", "1"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	out, err = run(t, append([]string{"context", "create", "1"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "4097 (0x1001)", out)

	out, err = run(t, append([]string{"context", "controls", "0x1001", "--control-type", "wheel"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = run(t, append([]string{"attr", "set", "pnam", "inking", "--context", "4097", "--control", "1", "--control-type", "wheel"}, target...)...)
	require.NoError(t, err)
	out, err = run(t, append([]string{"attr", "get", "pnam", "--context", "4097", "--control", "1", "--control-type", "wheel"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "inking", out)

	out, err = run(t, append([]string{"attr", "get", "Wmdl", "--tablet", "1", "--as", "utf8"}, target...)...)
	require.NoError(t, err)
	assert.Equal(t, "PTH-660", out)

	_, err = run(t, append([]string{"attr", "set", "pnam", "x", "--tablet", "1"}, target...)...)
	assert.ErrorContains(t, err, "refused")

	_, err = run(t, append([]string{"context", "destroy", "4097"}, target...)...)
	require.NoError(t, err)
	_, err = run(t, append([]string{"context", "destroy", "4097"}, target...)...)
	assert.ErrorIs(t, err, routing.ErrInvalidContext)

	_, err = run(t, append([]string{"tablets", "transducers", "0"}, target...)...)
	assert.ErrorIs(t, err, routing.ErrInvalidIndex)
}

func TestAttrPathNeedsNoDriver(t *testing.T) {
	testlog.Start(t)
	out, err := run(t, "attr", "path", "--context", "4097", "--control", "2", "--control-type", "slider", "--function", "3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "capp/Wctx[4097]/Wsld[2]/Wfnc[3]"), out)

	_, err = run(t, "attr", "path", "--function", "3")
	assert.Error(t, err)
	_, err = run(t, "attr", "path", "--tablet", "1", "--context", "4097")
	assert.Error(t, err)
}

func TestEncodeValue(t *testing.T) {
	testlog.Start(t)
	b, err := encodeValue(desc.TypeUInt32, "0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 2}, b)

	b, err = encodeValue(desc.TypeBoolean, "true")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, b)

	b, err = encodeValue(desc.TypeUTF8Text, "pen")
	require.NoError(t, err)
	assert.Equal(t, []byte("pen"), b)

	_, err = encodeValue(desc.TypeUInt32, "-1")
	assert.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "tabletctl.toml")
	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	out, err := run(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = run(t, "--config", path, "attr", "path", "--tablet", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "capp/Wtab[2]"), out)
}

func TestUnknownLogLevelRejected(t *testing.T) {
	testlog.Start(t)
	_, err := run(t, "--log-level", "loud", "attr", "path")
	assert.Error(t, err)
}
