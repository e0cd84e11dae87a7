package messagelog

import (
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

var (
	_ easyjson.Marshaler   = Payload{}
	_ easyjson.Unmarshaler = (*Payload)(nil)
)

// Payload is the stored copy of a chat message.
type Payload struct {
	ID            string    `json:"id"`
	ChannelID     string    `json:"channel_id"`
	Channel       string    `json:"channel"`
	UserID        string    `json:"user_id"`
	Login         string    `json:"login"`
	DisplayName   string    `json:"display_name"`
	Color         int       `json:"color"`
	IsMod         bool      `json:"is_mod"`
	IsSubscriber  bool      `json:"is_subscriber"`
	IsBroadcaster bool      `json:"is_broadcaster"`
	Bits          int       `json:"bits"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sent_at"`
}

func PayloadFromMessage(msg entity.Message) Payload {
	return Payload{
		ID:            msg.ID,
		ChannelID:     msg.Channel.ID,
		Channel:       msg.Channel.Username,
		UserID:        msg.Author.ID,
		Login:         msg.Author.Login,
		DisplayName:   msg.Author.DisplayName,
		Color:         msg.Author.Color,
		IsMod:         msg.Author.IsMod,
		IsSubscriber:  msg.Author.IsSubscriber,
		IsBroadcaster: msg.Author.IsBroadcaster,
		Bits:          msg.Bits,
		Content:       msg.Content,
		SentAt:        msg.CreatedAt,
	}
}

func (p Payload) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.String(p.ID)
	w.RawString(`,"channel_id":`)
	w.String(p.ChannelID)
	w.RawString(`,"channel":`)
	w.String(p.Channel)
	w.RawString(`,"user_id":`)
	w.String(p.UserID)
	w.RawString(`,"login":`)
	w.String(p.Login)
	w.RawString(`,"display_name":`)
	w.String(p.DisplayName)
	w.RawString(`,"color":`)
	w.Int(p.Color)
	w.RawString(`,"is_mod":`)
	w.Bool(p.IsMod)
	w.RawString(`,"is_subscriber":`)
	w.Bool(p.IsSubscriber)
	w.RawString(`,"is_broadcaster":`)
	w.Bool(p.IsBroadcaster)
	w.RawString(`,"bits":`)
	w.Int(p.Bits)
	w.RawString(`,"content":`)
	w.String(p.Content)
	w.RawString(`,"sent_at":`)
	w.Raw(p.SentAt.MarshalJSON())
	w.RawByte('}')
}

func (p *Payload) UnmarshalEasyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	if l.IsNull() {
		if isTopLevel {
			l.Consumed()
		}
		l.Skip()
		return
	}

	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		if l.IsNull() {
			l.Skip()
			l.WantComma()
			continue
		}

		switch key {
		case "id":
			p.ID = l.String()
		case "channel_id":
			p.ChannelID = l.String()
		case "channel":
			p.Channel = l.String()
		case "user_id":
			p.UserID = l.String()
		case "login":
			p.Login = l.String()
		case "display_name":
			p.DisplayName = l.String()
		case "color":
			p.Color = l.Int()
		case "is_mod":
			p.IsMod = l.Bool()
		case "is_subscriber":
			p.IsSubscriber = l.Bool()
		case "is_broadcaster":
			p.IsBroadcaster = l.Bool()
		case "bits":
			p.Bits = l.Int()
		case "content":
			p.Content = l.String()
		case "sent_at":
			if data := l.Raw(); l.Ok() {
				l.AddError(p.SentAt.UnmarshalJSON(data))
			}
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')

	if isTopLevel {
		l.Consumed()
	}
}
