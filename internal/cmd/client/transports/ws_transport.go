package transports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// WSTransport pushes batches over the WebSocket ingest endpoint and reads
// over the HTTP API.
type WSTransport struct {
	baseURL string
	client  *http.Client
	dialer  *websocket.Dialer
}

// NewWSTransport constructs a WSTransport for an http(s) base URL.
func NewWSTransport(baseURL string) *WSTransport {
	return &WSTransport{baseURL: strings.TrimRight(baseURL, "/"), client: http.DefaultClient, dialer: websocket.DefaultDialer}
}

func (t *WSTransport) wsURL(session string) (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sr/ws"
	u.RawQuery = url.Values{"session": {session}}.Encode()
	return u.String(), nil
}

// Push dials the ingest endpoint.
func (t *WSTransport) Push(ctx context.Context, session string) (BatchStream, error) {
	u, err := t.wsURL(session)
	if err != nil {
		return nil, err
	}
	conn, resp, err := t.dialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("websocket dial: %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return nil, err
	}
	return &wsBatchStream{conn: conn}, nil
}

// ReadCurrent fetches /v1/sessions/{session}/segments.
func (t *WSTransport) ReadCurrent(ctx context.Context, session, filter string) ([]byte, error) {
	u := t.baseURL + "/v1/sessions/" + url.PathEscape(session) + "/segments"
	if filter != "" {
		u += "?" + url.Values{"filter": {filter}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp.Status, body)
	}
	return body, nil
}

type wsBatchStream struct {
	conn *websocket.Conn
}

type wsReply struct {
	Page   uint64 `json:"page"`
	Offset int    `json:"offset"`
	Error  string `json:"error"`
}

func (s *wsBatchStream) Send(ctx context.Context, batch []byte) (Ack, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
		_ = s.conn.SetReadDeadline(dl)
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, batch); err != nil {
		return Ack{}, err
	}
	var r wsReply
	if err := s.conn.ReadJSON(&r); err != nil {
		return Ack{}, err
	}
	if r.Error != "" {
		return Ack{}, errors.New(r.Error)
	}
	return Ack{Page: r.Page, Offset: r.Offset}, nil
}

func (s *wsBatchStream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
	return s.conn.Close()
}

// httpError turns a non-2xx response into an error, preferring the
// server's {"error": ...} message.
func httpError(status string, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", status, e.Error)
	}
	return fmt.Errorf("%s: %s", status, strings.TrimSpace(string(body)))
}
