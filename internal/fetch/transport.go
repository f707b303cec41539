package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// Profile selects the TLS client fingerprint presented on outbound fetches.
type Profile string

const (
	// ProfileChrome impersonates a current Chrome ClientHello. Result URLs
	// routinely sit behind CDNs that fingerprint TLS, so this is the default.
	ProfileChrome Profile = "chrome"
	// ProfileGo uses the standard library TLS stack unchanged.
	ProfileGo Profile = "go"
)

// newTransport builds the http.RoundTripper for the given profile. proxyURL
// is optional; when set, all requests are routed through it, otherwise the
// environment proxy settings apply.
func newTransport(p Profile, proxyURL *url.URL) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	switch p {
	case "", ProfileGo:
		return transport, nil
	case ProfileChrome:
	default:
		return nil, fmt.Errorf("unknown fingerprint profile %q", p)
	}

	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		uConn := utls.UClient(tcpConn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = tcpConn.Close()
			return nil, fmt.Errorf("utls handshake: %w", err)
		}
		return uConn, nil
	}

	return transport, nil
}
