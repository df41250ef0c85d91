package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/jlaffaye/ftp"
)

const defaultFTPPort = "21"

// ctxDialer opens the control and data connections of one FTP session and
// closes all of them once ctx is done, which unblocks any pending command
// or read.
type ctxDialer struct {
	ctx    context.Context
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

func (d *ctxDialer) dial(network, addr string) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(d.ctx, network, addr)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		_ = conn.Close()
		return nil, d.ctx.Err()
	}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *ctxDialer) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, conn := range d.conns {
		_ = conn.Close()
	}
}

// ctxErr prefers the context error over the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%w: %v", cerr, err)
	}
	return err
}

// ftpBody closes the retrieval and then the control connection.
type ftpBody struct {
	ctx  context.Context
	resp *ftp.Response
	conn *ftp.ServerConn
	stop func() bool
}

func (b *ftpBody) Read(p []byte) (int, error) {
	n, err := b.resp.Read(p)
	if err != nil && err != io.EOF {
		err = ctxErr(b.ctx, err)
	}
	return n, err
}

func (b *ftpBody) Close() error {
	b.stop()
	err := b.resp.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

// openFTP retrieves u with an anonymous login unless the URL carries
// credentials. Every step, from the greeting to the last data read, is
// bounded by ctx.
func openFTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), defaultFTPPort)
	}

	d := &ctxDialer{ctx: ctx}
	stop := context.AfterFunc(ctx, d.closeAll)
	fail := func(err error) (io.ReadCloser, error) {
		stop()
		d.closeAll()
		return nil, ctxErr(ctx, err)
	}

	conn, err := ftp.Dial(host, ftp.DialWithDialFunc(d.dial))
	if err != nil {
		return fail(fmt.Errorf("failed to connect to %s: %w", host, err))
	}

	user, password := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			password = p
		}
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return fail(fmt.Errorf("failed to log in to %s: %w", host, err))
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		_ = conn.Quit()
		return fail(fmt.Errorf("failed to retrieve %s: %w", u.Path, err))
	}

	return &ftpBody{ctx: ctx, resp: resp, conn: conn, stop: stop}, nil
}
