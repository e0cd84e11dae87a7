package twitchirc

import (
	"strings"
)

// Commands the dispatcher understands. Anything else is kept as is and ignored.
const (
	CommandPing      = "PING"
	CommandJoin      = "JOIN"
	CommandPart      = "PART"
	CommandRoomstate = "ROOMSTATE"
	CommandClearchat = "CLEARCHAT"
	CommandPrivmsg   = "PRIVMSG"
	CommandWelcome   = "001"
	CommandYourHost  = "002"
	CommandEndOfMOTD = "376"

	// CommandUnknown marks a line that could not be parsed.
	CommandUnknown = ""
)

type Prefix struct {
	// Name is the nick of the sender, the server name or empty
	Name string
	User string
	Host string
}

// Message is one decoded IRC line.
type Message struct {
	Tags    Tags
	Prefix  Prefix
	Command string

	// Params holds all parameters, the trailing parameter included as last element.
	Params []string

	// HasTrailing is set when the last parameter was sent with a leading colon.
	HasTrailing bool

	Raw string
}

// Trailing returns the trailing parameter, e.g. the chat message of a PRIVMSG.
func (m Message) Trailing() string {
	if !m.HasTrailing || len(m.Params) == 0 {
		return ""
	}

	return m.Params[len(m.Params)-1]
}

// Channel returns the last #-prefixed parameter without the #.
func (m Message) Channel() string {
	for i := len(m.Params) - 1; i >= 0; i-- {
		if m.HasTrailing && i == len(m.Params)-1 {
			continue
		}

		if strings.HasPrefix(m.Params[i], "#") {
			return normalizeChannel(m.Params[i])
		}
	}

	return ""
}

// ParseLine parses a single line without its line ending. Malformed input never
// fails, it yields a Message with CommandUnknown.
func ParseLine(line string) Message {
	line = strings.TrimRight(line, "\r\n")

	msg := Message{
		Tags: Tags{},
		Raw:  line,
	}

	rest := line

	if strings.HasPrefix(rest, "@") {
		rawTags, after, found := strings.Cut(rest, " ")
		if !found {
			return msg
		}

		msg.Tags = ParseTags(rawTags)
		rest = strings.TrimLeft(after, " ")
	}

	if strings.HasPrefix(rest, ":") {
		rawPrefix, after, found := strings.Cut(rest[1:], " ")
		if !found {
			return msg
		}

		msg.Prefix = parsePrefix(rawPrefix)
		rest = strings.TrimLeft(after, " ")
	}

	// the command is always the first middle param, so splitting on " :" is enough
	middle, trailing, hasTrailing := strings.Cut(rest, " :")

	params := strings.Fields(middle)
	if len(params) == 0 {
		return msg
	}

	msg.Command = strings.ToUpper(params[0])
	msg.Params = params[1:]

	if hasTrailing {
		msg.Params = append(msg.Params, trailing)
		msg.HasTrailing = true
	}

	if len(msg.Params) == 0 {
		msg.Params = nil
	}

	return msg
}

func parsePrefix(raw string) Prefix {
	p := Prefix{Name: raw}

	if name, host, found := strings.Cut(p.Name, "@"); found {
		p.Name, p.Host = name, host
	}

	if name, user, found := strings.Cut(p.Name, "!"); found {
		p.Name, p.User = name, user
	}

	return p
}

// normalizeChannel strips the # and lower-cases the channel name.
func normalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
}
