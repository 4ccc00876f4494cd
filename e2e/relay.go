// Package e2e hosts an in-process fake of the DSP relay plus scenarios that
// drive the full client stack against it over real TCP sockets.
package e2e

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
)

// FakeRelay speaks the relay's line-delimited JSON protocol: join for a
// token, then exactly one send or retrieve per connection.
type FakeRelay struct {
	listener net.Listener

	mu        sync.Mutex
	accounts  map[string]string // username -> password
	mailboxes map[string][]letter
	tokens    map[string]string // token -> username
	nextToken int
}

type letter struct {
	From      string
	Text      string
	Timestamp float64
	Unread    bool
}

func NewFakeRelay() (*FakeRelay, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	r := &FakeRelay{
		listener:  listener,
		accounts:  make(map[string]string),
		mailboxes: make(map[string][]letter),
		tokens:    make(map[string]string),
	}
	go r.acceptLoop()
	return r, nil
}

func (r *FakeRelay) Addr() string {
	return r.listener.Addr().String()
}

func (r *FakeRelay) Host() string {
	host, _, _ := net.SplitHostPort(r.Addr())
	return host
}

func (r *FakeRelay) Port() int {
	_, port, _ := net.SplitHostPort(r.Addr())
	n, _ := strconv.Atoi(port)
	return n
}

func (r *FakeRelay) Close() error {
	return r.listener.Close()
}

// Register creates an account the relay will accept joins for.
func (r *FakeRelay) Register(username, password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[username] = password
}

// Deliver drops a message straight into a user's mailbox, as if a third
// party had sent it.
func (r *FakeRelay) Deliver(to, from, text string, timestamp float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mailboxes[to] = append(r.mailboxes[to], letter{
		From: from, Text: text, Timestamp: timestamp, Unread: true,
	})
}

func (r *FakeRelay) acceptLoop() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}
		go r.serve(conn)
	}
}

type request struct {
	Join *struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"join"`
	Token         string          `json:"token"`
	DirectMessage json.RawMessage `json:"directmessage"`
}

func (r *FakeRelay) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)

	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			fmt.Fprintf(conn, "{\"response\": {\"type\": \"error\", \"message\": \"invalid request\"}}\r\n")
			continue
		}

		switch {
		case req.Join != nil:
			r.handleJoin(conn, req)
		case len(req.DirectMessage) > 0:
			r.handleDirectMessage(conn, req)
		default:
			fmt.Fprintf(conn, "{\"response\": {\"type\": \"error\", \"message\": \"unknown request\"}}\r\n")
		}
	}
}

func (r *FakeRelay) handleJoin(conn net.Conn, req request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	password, known := r.accounts[req.Join.Username]
	if !known || password != req.Join.Password {
		fmt.Fprintf(conn, "{\"response\": {\"type\": \"error\", \"message\": \"Invalid password or username.\"}}\r\n")
		return
	}

	r.nextToken++
	token := fmt.Sprintf("token-%d", r.nextToken)
	r.tokens[token] = req.Join.Username
	fmt.Fprintf(conn, "{\"response\": {\"type\": \"ok\", \"token\": %q}}\r\n", token)
}

func (r *FakeRelay) handleDirectMessage(conn net.Conn, req request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, authed := r.tokens[req.Token]
	if !authed {
		fmt.Fprintf(conn, "{\"response\": {\"type\": \"error\", \"message\": \"invalid token\"}}\r\n")
		return
	}

	// Retrieve requests carry a bare string kind; sends carry an object.
	var kind string
	if err := json.Unmarshal(req.DirectMessage, &kind); err == nil {
		r.respondMessages(conn, username, kind)
		return
	}

	var dm struct {
		Entry     string `json:"entry"`
		Recipient string `json:"recipient"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(req.DirectMessage, &dm); err != nil {
		fmt.Fprintf(conn, "{\"response\": {\"type\": \"error\", \"message\": \"invalid directmessage\"}}\r\n")
		return
	}
	timestamp, _ := strconv.ParseFloat(dm.Timestamp, 64)
	r.mailboxes[dm.Recipient] = append(r.mailboxes[dm.Recipient], letter{
		From: username, Text: dm.Entry, Timestamp: timestamp, Unread: true,
	})
	fmt.Fprintf(conn, "{\"response\": {\"type\": \"ok\", \"message\": \"Direct message sent\"}}\r\n")
}

func (r *FakeRelay) respondMessages(conn net.Conn, username, kind string) {
	type wireMessage struct {
		Message   string  `json:"message"`
		Timestamp float64 `json:"timestamp"`
		From      string  `json:"from"`
	}

	box := r.mailboxes[username]
	out := make([]wireMessage, 0, len(box))
	for i := range box {
		if kind == "new" && !box[i].Unread {
			continue
		}
		box[i].Unread = false
		out = append(out, wireMessage{
			Message:   box[i].Text,
			Timestamp: box[i].Timestamp,
			From:      box[i].From,
		})
	}
	r.mailboxes[username] = box

	payload, _ := json.Marshal(map[string]any{
		"response": map[string]any{"type": "ok", "messages": out},
	})
	fmt.Fprintf(conn, "%s\r\n", payload)
}
