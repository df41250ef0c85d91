package fetcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

const ftpPath = "/pub/complextab/homo_sapiens.tsv"

// fakeFTP is a single-file FTP server speaking just enough of the protocol
// for one anonymous passive-mode retrieval.
type fakeFTP struct {
	ln          net.Listener
	body        string
	rejectLogin bool
	stallOnUser bool
	done        chan struct{}
}

func startFakeFTP(t *testing.T, srv *fakeFTP) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	srv.ln = ln
	srv.done = make(chan struct{})
	t.Cleanup(func() {
		close(srv.done)
		ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.handle(conn)
		}
	}()
	return "ftp://" + ln.Addr().String() + ftpPath
}

func (s *fakeFTP) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(format string, args ...any) {
		fmt.Fprintf(conn, format+"\r\n", args...)
	}

	var data net.Listener
	defer func() {
		if data != nil {
			data.Close()
		}
	}()

	reply("220 fake ftp ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch strings.ToUpper(cmd) {
		case "USER":
			if s.stallOnUser {
				<-s.done
				return
			}
			if s.rejectLogin {
				reply("530 Login incorrect.")
				continue
			}
			reply("331 Password required")
		case "PASS":
			reply("230 Logged in")
		case "TYPE":
			reply("200 Type set")
		case "EPSV":
			data, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				reply("425 Cannot open data connection")
				continue
			}
			reply("229 Entering Extended Passive Mode (|||%d|)", data.Addr().(*net.TCPAddr).Port)
		case "RETR":
			if arg != ftpPath || data == nil {
				reply("550 No such file")
				continue
			}
			reply("150 Opening BINARY mode data connection")
			dc, err := data.Accept()
			if err != nil {
				return
			}
			_, _ = io.WriteString(dc, s.body)
			dc.Close()
			reply("226 Transfer complete")
		case "QUIT":
			reply("221 Goodbye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func TestFetchAndCache_FTP(t *testing.T) {
	body := "#Complex ac\tRecommended name\nCPX-1\tfoo\nCPX-2\tbar\n"
	uri := startFakeFTP(t, &fakeFTP{body: body})

	cache := newTestCache(t)
	f := NewFetcher(5, 5*time.Second)
	if err := f.FetchAndCache(context.Background(), uri, cache); err != nil {
		t.Fatalf("FetchAndCache() error = %v", err)
	}
	if got := mustRead(t, cache.Path()); got != body {
		t.Errorf("cache content = %q, want %q", got, body)
	}
}

func TestFetchAndCache_FTPFailureLeavesCacheUntouched(t *testing.T) {
	tests := []struct {
		name string
		srv  *fakeFTP
		path string
	}{
		{"login rejected", &fakeFTP{body: "new", rejectLogin: true}, ftpPath},
		{"missing file", &fakeFTP{body: "new"}, "/pub/complextab/nope.tsv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := startFakeFTP(t, tt.srv)
			uri = strings.TrimSuffix(uri, ftpPath) + tt.path

			cache := newTestCache(t)
			if err := os.WriteFile(cache.Path(), []byte("old"), 0600); err != nil {
				t.Fatal(err)
			}

			f := NewFetcher(0, 5*time.Second)
			err := f.FetchAndCache(context.Background(), uri, cache)
			var netErr *NetworkError
			if !errors.As(err, &netErr) {
				t.Fatalf("FetchAndCache() error = %v, want *NetworkError", err)
			}
			if got := mustRead(t, cache.Path()); got != "old" {
				t.Errorf("cache content = %q, want old", got)
			}
			if _, err := os.Stat(cache.BackupPath()); !os.IsNotExist(err) {
				t.Errorf("backup created by failed fetch, stat err = %v", err)
			}
		})
	}
}

func TestFetchAndCache_FTPStallHonorsTimeout(t *testing.T) {
	uri := startFakeFTP(t, &fakeFTP{body: "new", stallOnUser: true})

	cache := newTestCache(t)
	if err := os.WriteFile(cache.Path(), []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(0, 300*time.Millisecond)
	errc := make(chan error, 1)
	start := time.Now()
	go func() {
		errc <- f.FetchAndCache(context.Background(), uri, cache)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrNetwork) || !IsTimeout(err) {
			t.Errorf("FetchAndCache() error = %v, want network timeout", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("returned after %s, want close to 300ms", elapsed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("FetchAndCache() still blocked after 5s with a 300ms timeout")
	}

	if got := mustRead(t, cache.Path()); got != "old" {
		t.Errorf("cache content = %q, want old", got)
	}
}
