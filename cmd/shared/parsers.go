package shared

import (
	"fmt"
	"regexp"
	"strconv"
)

var transportRe = regexp.MustCompile(`^tcp://([^:]*):(\d+)$`)

// ParseTransport parses "tcp://host:port". An empty host or "*" stands for
// all interfaces and is returned as "".
func ParseTransport(s string) (host string, port int, err error) {
	matches := transportRe.FindStringSubmatch(s)
	if len(matches) != 3 {
		err = parsingError(s)
		return
	}

	host = matches[1]
	if host == "*" {
		host = ""
	}

	port, err = strconv.Atoi(matches[2])
	if err != nil || port < 1 || port > 65535 {
		err = parsingError(s)
		return
	}

	return
}

func parsingError(s string) error {
	return fmt.Errorf("parsing %s: format should be 'tcp://host:port'", s)
}
