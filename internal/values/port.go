// Package values holds the small, total domain-value parsers shared by the
// structural parser: ports, volume mounts, durations, byte sizes, restart
// policies, and dependency conditions.
package values

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Protocol is a port's transport protocol.
type Protocol int

const (
	TCP Protocol = iota
	UDP
)

func (p Protocol) String() string {
	if p == UDP {
		return "udp"
	}
	return "tcp"
}

// Port is a host:container port mapping.
type Port struct {
	Host      uint16
	Container uint16
	Protocol  Protocol
}

var (
	ErrInvalidPortFormat = errors.New("invalid port format")
	ErrInvalidPortNumber = errors.New("invalid port number")
	ErrInvalidProtocol   = errors.New("invalid protocol")
)

// ParsePort parses "H:C" or "H:C/PROTO" where PROTO is "tcp" (default) or
// "udp".
func ParsePort(s string) (Port, error) {
	proto := TCP
	rest := s
	if idx := strings.IndexByte(s, '/'); idx != -1 {
		protoStr := s[idx+1:]
		rest = s[:idx]
		switch protoStr {
		case "tcp":
			proto = TCP
		case "udp":
			proto = UDP
		default:
			return Port{}, errors.Wrapf(ErrInvalidProtocol, "%q", protoStr)
		}
	}

	idx := strings.IndexByte(rest, ':')
	if idx == -1 {
		return Port{}, errors.Wrapf(ErrInvalidPortFormat, "%q", s)
	}
	hostStr, containerStr := rest[:idx], rest[idx+1:]
	if hostStr == "" || containerStr == "" || strings.ContainsRune(containerStr, ':') {
		return Port{}, errors.Wrapf(ErrInvalidPortFormat, "%q", s)
	}

	host, err := strconv.ParseUint(hostStr, 10, 16)
	if err != nil {
		return Port{}, errors.Wrapf(ErrInvalidPortNumber, "%q", hostStr)
	}
	container, err := strconv.ParseUint(containerStr, 10, 16)
	if err != nil {
		return Port{}, errors.Wrapf(ErrInvalidPortNumber, "%q", containerStr)
	}

	return Port{Host: uint16(host), Container: uint16(container), Protocol: proto}, nil
}
