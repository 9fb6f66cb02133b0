// Package mqtt connects the LCD to an MQTT broker: commands published on a
// topic are applied to the display and a status report is published back.
package mqtt

import "errors"

// splitHostPort splits a host:port string into separate host and port components.
// Returns an error if the format is invalid.
func splitHostPort(addr string) (host string, port uint16, err error) {
	// Find the last colon to support IPv6 addresses
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", 0, errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	if host == "" {
		return "", 0, errors.New("empty host")
	}
	port, err = parsePort(addr[colonIdx+1:])
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// parsePort converts a decimal port string to uint16.
func parsePort(portStr string) (uint16, error) {
	if portStr == "" {
		return 0, errors.New("empty port")
	}
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0, errors.New("invalid port " + portStr)
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 65535 {
			return 0, errors.New("port out of range " + portStr)
		}
	}
	if port == 0 {
		return 0, errors.New("port out of range " + portStr)
	}
	return uint16(port), nil
}
