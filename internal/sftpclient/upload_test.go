package sftpclient

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	testUser = "catalog"
	testPass = "secret"
)

// startServer runs a password-only SSH server exposing the sftp subsystem on
// the local filesystem.
func startServer(t *testing.T) (addr string, hostKey ssh.PublicKey) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPass {
				return nil, nil
			}
			return nil, errors.New("denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg)
		}
	}()
	return ln.Addr().String(), signer.PublicKey()
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			nc.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, in, err := nc.Accept()
		if err != nil {
			return
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				req.Reply(isSFTPSubsystem(req), nil)
			}
		}(in)

		srv, err := sftp.NewServer(ch)
		if err != nil {
			ch.Close()
			continue
		}
		go func() {
			srv.Serve()
			srv.Close()
		}()
	}
}

func isSFTPSubsystem(req *ssh.Request) bool {
	if req.Type != "subsystem" || len(req.Payload) < 4 {
		return false
	}
	n := binary.BigEndian.Uint32(req.Payload[:4])
	return int(n) == len(req.Payload)-4 && string(req.Payload[4:]) == "sftp"
}

func serverConfig(t *testing.T, addr string) Config {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := net.LookupPort("tcp", port)
	require.NoError(t, err)
	return Config{
		Host:                  host,
		Port:                  p,
		User:                  testUser,
		Pass:                  testPass,
		RemoteDir:             filepath.Join(t.TempDir(), "inbound", "catalog"),
		InsecureIgnoreHostKey: true,
		Timeout:               5 * time.Second,
	}
}

func TestPublishValidation(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		cfg           Config
		file          string
		errorContains string
	}{
		{
			name:          "Missing credentials",
			cfg:           Config{},
			file:          "catalog.csv",
			errorContains: "sftp: missing env SFTP_HOST / SFTP_USER / SFTP_PASS",
		},
		{
			name:          "Path in remote name",
			cfg:           Config{Host: "h", User: "u", Pass: "p"},
			file:          "../catalog.csv",
			errorContains: "invalid remote file name",
		},
		{
			name:          "Known hosts required",
			cfg:           Config{Host: "h", User: "u", Pass: "p"},
			file:          "catalog.csv",
			errorContains: "SFTP_KNOWN_HOSTS is required",
		},
		{
			name:          "Known hosts file missing",
			cfg:           Config{Host: "h", User: "u", Pass: "p", KnownHostsFile: "/nonexistent/known_hosts"},
			file:          "catalog.csv",
			errorContains: "sftp: known_hosts",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Publish(ctx, tc.cfg, tc.file, strings.NewReader("x"))
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.errorContains)
			}
			if !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("Expected error containing %q, got %q", tc.errorContains, err.Error())
			}
		})
	}
}

func TestPublishMissingCredentialsSentinel(t *testing.T) {
	_, err := Publish(context.Background(), Config{Host: "h"}, "a.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Port != 22 {
		t.Errorf("Expected default Port to be 22, got %d", cfg.Port)
	}
	if cfg.RemoteDir != "/" {
		t.Errorf("Expected default RemoteDir to be /, got %q", cfg.RemoteDir)
	}
	if cfg.Timeout != 20*time.Second {
		t.Errorf("Expected default Timeout to be 20s, got %s", cfg.Timeout)
	}
}

func TestPublishUploadsFile(t *testing.T) {
	addr, _ := startServer(t)
	cfg := serverConfig(t, addr)

	remote, err := Publish(context.Background(), cfg, "catalog.csv", strings.NewReader("COURSE_ID\r\n1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.RemoteDir, "catalog.csv"), remote)

	b, err := os.ReadFile(remote)
	require.NoError(t, err)
	assert.Equal(t, "COURSE_ID\r\n1\r\n", string(b))
}

func TestPublishKnownHosts(t *testing.T) {
	addr, key := startServer(t)
	cfg := serverConfig(t, addr)
	cfg.InsecureIgnoreHostKey = false

	khPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(addr)}, key)
	require.NoError(t, os.WriteFile(khPath, []byte(line+"\n"), 0o600))
	cfg.KnownHostsFile = khPath

	_, err := Publish(context.Background(), cfg, "catalog.csv", strings.NewReader("ok"))
	require.NoError(t, err)

	// a different key for the same host must be rejected
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	other, err := ssh.NewPublicKey(otherPub)
	require.NoError(t, err)
	line = knownhosts.Line([]string{knownhosts.Normalize(addr)}, other)
	require.NoError(t, os.WriteFile(khPath, []byte(line+"\n"), 0o600))

	_, err = Publish(context.Background(), cfg, "catalog.csv", strings.NewReader("ok"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sftp: dial error")
}

func TestPublishWrongPassword(t *testing.T) {
	addr, _ := startServer(t)
	cfg := serverConfig(t, addr)
	cfg.Pass = "nope"

	_, err := Publish(context.Background(), cfg, "catalog.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sftp: dial error")
}

func TestPublishCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Host: "127.0.0.1", Port: 1, User: "u", Pass: "p", InsecureIgnoreHostKey: true}
	_, err := Publish(ctx, cfg, "catalog.csv", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial canceled")
}
