// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MaxRemoteURLLength is the longest remote URL accepted for images and webhooks.
const MaxRemoteURLLength = 2048

// ErrPrivateAddress is returned when a connection would reach a private or reserved address.
var ErrPrivateAddress = errors.New("private or reserved address")

var privateIPBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"100.64.0.0/10",
	"192.0.0.0/24",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
	"::/128",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// IsPrivateIP reports whether ip is private, loopback, link-local or reserved.
// A nil IP counts as private.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// ValidateRemoteURL checks that rawURL is an absolute http(s) URL with a host.
// Address checks happen at dial time, see SSRFSafeDialContext.
func ValidateRemoteURL(rawURL string) (*url.URL, error) {
	if len(rawURL) > MaxRemoteURLLength {
		return nil, fmt.Errorf("URL exceeds maximum length of %d characters", MaxRemoteURLLength)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https scheme")
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URL must have a hostname")
	}
	return u, nil
}

// SSRFSafeDialContext returns a DialContext that refuses to connect to
// private or reserved addresses. The resolved IP is dialed directly so a
// second DNS answer cannot redirect the connection.
func SSRFSafeDialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", host, err)
		}
		for _, ipAddr := range ips {
			if IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("%w: %s resolves to %s", ErrPrivateAddress, host, ipAddr.IP)
			}
		}

		var lastErr error
		for _, ipAddr := range ips {
			conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ipAddr.IP.String(), port))
			if dialErr == nil {
				return conn, nil
			}
			lastErr = dialErr
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no addresses for %q", host)
		}
		return nil, fmt.Errorf("connecting to %q: %w", host, lastErr)
	}
}
