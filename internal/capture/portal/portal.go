// Package portal talks to xdg-desktop-portal's Screenshot interface over
// the D-Bus session bus. It is the only way to grab the screen on most
// Wayland compositors.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/godbus/dbus/v5"
)

// Portal D-Bus constants
const (
	portalService   = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"
)

// Response codes of org.freedesktop.portal.Request.Response
const (
	ResponseSuccess   = 0
	ResponseCancelled = 1
	ResponseOther     = 2
)

// DefaultTimeout bounds the wait for the Response signal
const DefaultTimeout = 30 * time.Second

var (
	// ErrCancelled is returned when the user dismissed the portal dialog
	ErrCancelled = errors.New("screenshot request cancelled")

	// ErrTimeout is returned when no Response signal arrived in time
	ErrTimeout = errors.New("timeout waiting for screenshot response")
)

// Client issues screenshot requests to the desktop portal
type Client struct {
	conn    *dbus.Conn
	timeout time.Duration
	counter atomic.Uint32
	mu      sync.Mutex
}

// NewClient connects to the session bus
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Client{
		conn:    conn,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout overrides DefaultTimeout
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close closes the bus connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Available reports whether the portal exposes the Screenshot interface
func (c *Client) Available() bool {
	obj := c.conn.Object(portalService, portalPath)
	v, err := obj.GetProperty(screenshotIface + ".version")
	if err != nil {
		return false
	}
	_, ok := v.Value().(uint32)
	return ok
}

// Screenshot asks the portal for a non-interactive full-desktop screenshot
// and returns the path of the file it wrote. The caller owns the file.
func (c *Client) Screenshot(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("portal")
	obj := c.conn.Object(portalService, portalPath)

	token := fmt.Sprintf("soomer%d_%d", os.Getpid(), c.counter.Add(1))
	expected, err := c.requestPath(token)
	if err != nil {
		return "", err
	}

	// Subscribe before the call so a fast Response is not missed. The rule
	// has no path: older portals ignore handle_token and answer on a path
	// only known once the call returns.
	matchRule := responseMatchRule()
	if err := c.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		log.Warn().Err(err).Msg("Failed to add match rule")
	}
	defer c.conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, matchRule)

	responseChan := make(chan *dbus.Signal, 10)
	c.conn.Signal(responseChan)
	defer c.conn.RemoveSignal(responseChan)

	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(false),
		"modal":        dbus.MakeVariant(false),
	}

	var requestPath dbus.ObjectPath
	if err := obj.Call(screenshotIface+".Screenshot", 0, "", options).Store(&requestPath); err != nil {
		return "", fmt.Errorf("failed to call Screenshot: %w", err)
	}
	if requestPath != expected {
		// Older portals ignore handle_token
		log.Debug().
			Str("expected", string(expected)).
			Str("request_path", string(requestPath)).
			Msg("Portal returned a different request path")
	}

	log.Debug().Str("request_path", string(requestPath)).Msg("Waiting for Screenshot response")

	timeout := time.NewTimer(c.timeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timeout.C:
			return "", ErrTimeout
		case sig := <-responseChan:
			if !isResponse(sig, requestPath) {
				continue
			}
			uri, err := parseResponse(sig.Body)
			if err != nil {
				return "", err
			}
			path, err := fileFromURI(uri)
			if err != nil {
				return "", err
			}
			log.Debug().Str("path", path).Msg("Portal wrote screenshot")
			return path, nil
		}
	}
}

// responseMatchRule subscribes to every Request.Response signal
func responseMatchRule() string {
	return fmt.Sprintf("type='signal',interface='%s',member='Response'", requestIface)
}

// isResponse reports whether sig answers the request at path
func isResponse(sig *dbus.Signal, path dbus.ObjectPath) bool {
	return sig != nil && sig.Path == path && sig.Name == requestIface+".Response"
}

// requestPath predicts the Request object path for a handle token
func (c *Client) requestPath(token string) (dbus.ObjectPath, error) {
	names := c.conn.Names()
	if len(names) == 0 {
		return "", fmt.Errorf("session bus connection has no unique name")
	}
	return requestPathFor(names[0], token), nil
}

func requestPathFor(sender, token string) dbus.ObjectPath {
	s := strings.TrimPrefix(sender, ":")
	s = strings.ReplaceAll(s, ".", "_")
	return dbus.ObjectPath(portalPath + "/request/" + s + "/" + token)
}

// parseResponse extracts the uri from a Request.Response signal body (ua{sv})
func parseResponse(body []interface{}) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("invalid response: %d body fields", len(body))
	}

	code, ok := body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("invalid response code type %T", body[0])
	}
	switch code {
	case ResponseSuccess:
	case ResponseCancelled:
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("screenshot request failed (code %d)", code)
	}

	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("invalid response results type %T", body[1])
	}
	v, ok := results["uri"]
	if !ok {
		return "", fmt.Errorf("no uri in response")
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected uri type %T", v.Value())
	}
	return uri, nil
}

// fileFromURI turns a file:// URI into a local path
func fileFromURI(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri %q: %w", raw, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("empty path in uri %q", raw)
	}
	return u.Path, nil
}
