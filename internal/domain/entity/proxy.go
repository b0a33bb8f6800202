package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Proxy is an authenticated HTTP forward proxy in ip:port:login:password form.
type Proxy struct {
	Host     string
	Port     string
	Login    string
	Password string
}

// ParseProxy parses "ip:port:login:password". An empty string yields nil.
func ParseProxy(raw string) (*Proxy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, raw)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, raw)
		}
	}
	return &Proxy{Host: parts[0], Port: parts[1], Login: parts[2], Password: parts[3]}, nil
}

// URL returns http://login:password@ip:port.
func (p *Proxy) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(p.Login, p.Password),
		Host:   net.JoinHostPort(p.Host, p.Port),
	}
}

// DialAddr returns login:password@ip:port, the form fasthttpproxy expects.
func (p *Proxy) DialAddr() string {
	return p.Login + ":" + p.Password + "@" + net.JoinHostPort(p.Host, p.Port)
}

func (p *Proxy) String() string { return p.URL().String() }
