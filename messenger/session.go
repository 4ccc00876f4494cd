package messenger

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	apperrors "messenger-lab/errors"
	"messenger-lab/protocol"
)

// Endpoint describes the relay and the socket deadlines applied to it.
type Endpoint struct {
	Host        string
	Port        int
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

func (e Endpoint) address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// session owns exactly one TCP round trip through the relay's tiny state
// machine: dialed, joined, one operation, closed. A session is never reused;
// the token it holds dies with the connection.
type session struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	token   string
}

func dialSession(ctx context.Context, ep Endpoint) (*session, error) {
	dialer := net.Dialer{Timeout: ep.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %v", ep.address(), apperrors.ErrUnreachable, err)
	}
	return &session{conn: conn, reader: bufio.NewReader(conn), timeout: ep.IOTimeout}, nil
}

// roundTrip writes one CRLF-terminated request line and reads one response
// line, with a deadline on each leg so a stalled relay cannot hang a cycle.
func (s *session) roundTrip(payload []byte) ([]byte, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}
	if _, err := s.conn.Write(append(payload, '\r', '\n')); err != nil {
		return nil, fmt.Errorf("write: %w: %v", apperrors.ErrUnreachable, err)
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read: %w: %v", apperrors.ErrUnreachable, err)
	}
	return line, nil
}

// join exchanges credentials for a session token. A non-ok response type is
// an authentication rejection, reported before any operation request is sent.
func (s *session) join(username, password string) error {
	payload, err := protocol.EncodeJoin(username, password)
	if err != nil {
		return err
	}
	line, err := s.roundTrip(payload)
	if err != nil {
		return err
	}
	typ, token, err := protocol.DecodeJoin(line)
	if err != nil {
		return err
	}
	if typ != "ok" {
		return fmt.Errorf("%w: response type %q", apperrors.ErrAuthRejected, typ)
	}
	s.token = token
	return nil
}

func (s *session) Close() error {
	return s.conn.Close()
}
