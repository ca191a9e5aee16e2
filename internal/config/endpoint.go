package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	DefaultRegistryScheme = "http"
	DefaultRegistryPort   = 8500
)

var ErrInvalidEndpointPort = errors.New("invalid endpoint port")

type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

func (e Endpoint) HostPort() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s", e.Scheme, e.HostPort())
}

// ParseEndpoint splits a registry address like "[scheme://]host[:port]".
// A missing scheme defaults to http and a missing port to 8500. An unparsable port also falls back
// to 8500: the endpoint is still usable and the returned error, wrapping ErrInvalidEndpointPort,
// is only meant to be reported.
func ParseEndpoint(address string) (Endpoint, error) {
	ret := Endpoint{
		Scheme: DefaultRegistryScheme,
		Port:   DefaultRegistryPort,
	}

	hostPart := strings.TrimSpace(address)

	scheme, rest, found := strings.Cut(hostPart, "://")
	if found {
		ret.Scheme = scheme
		hostPart = rest
	}

	hostPart = strings.TrimSuffix(hostPart, "/")

	idx := strings.LastIndex(hostPart, ":")
	if idx < 0 || strings.HasSuffix(hostPart, "]") {
		ret.Host = strings.Trim(hostPart, "[]")

		return ret, nil
	}

	ret.Host = strings.Trim(hostPart[:idx], "[]")
	portStr := hostPart[idx+1:]

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return ret, fmt.Errorf("%w %q in %q, defaulting to %d", ErrInvalidEndpointPort, portStr, address, DefaultRegistryPort)
	}

	ret.Port = port

	return ret, nil
}
