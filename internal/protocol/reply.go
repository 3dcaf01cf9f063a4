package protocol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AckCode classifies a failure reply. Values follow MPD's numbering.
type AckCode int

const (
	AckArg        AckCode = 2
	AckPassword   AckCode = 3
	AckPermission AckCode = 4
	AckUnknown    AckCode = 5
	AckNoExist    AckCode = 50
	AckSystem     AckCode = 52
	AckPlayerSync AckCode = 55
	AckExist      AckCode = 56
)

// Version is announced in the greeting.
const Version = "1.0.0"

// NotUnderstood is the fixed reply to any [Unknown] command.
const NotUnderstood = "ACK [5@0] {} command not understood\n"

// Greeting is the first line the server sends on a new connection.
func Greeting() string {
	return "OK songd " + Version + "\n"
}

// OK builds a success reply: each body line followed by the OK terminator.
func OK(body ...string) string {
	var b strings.Builder
	for _, line := range body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("OK\n")
	return b.String()
}

// Ack builds a failure reply for command.
func Ack(code AckCode, command Name, msg string) string {
	return fmt.Sprintf("ACK [%d@0] {%s} %s\n", code, command, msg)
}

// Numbered prefixes every item with its 1-based position.
func Numbered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return out
}

// Reply is a decoded server response.
type Reply struct {
	Body    []string
	OK      bool
	Code    AckCode
	Command string
	Message string
}

// String re-encodes the reply the way the server sent it.
func (r Reply) String() string {
	if r.OK {
		return OK(r.Body...)
	}
	return fmt.Sprintf("ACK [%d@0] {%s} %s\n", r.Code, r.Command, r.Message)
}

var ackPattern = regexp.MustCompile(`^ACK \[(\d+)@\d+\] \{([^}]*)\} ?(.*)$`)

// IsTerminator reports whether line ends a reply.
func IsTerminator(line string) bool {
	return line == "OK" || strings.HasPrefix(line, "ACK ")
}

// ParseAck decodes an ACK terminator line.
func ParseAck(line string) (Reply, bool) {
	m := ackPattern.FindStringSubmatch(line)
	if m == nil {
		return Reply{}, false
	}
	code, _ := strconv.Atoi(m[1])
	return Reply{Code: AckCode(code), Command: m[2], Message: m[3]}, true
}
