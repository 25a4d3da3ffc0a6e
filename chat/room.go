// Package chat
// Author: momentics <momentics@gmail.com>
//
// Room turns the raw payload stream of a messaging client into a chat
// session: it sends requests tagged with nonces and folds replies into a
// transcript, an identity and a yodel directory.

package chat

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/protocol"
)

// Update holds what a single Sync call learned that was not known before.
type Update struct {
	Messages []protocol.MsgBroadcast
	Yodels   []protocol.Yodel
	Errors   []*api.Error
	Identity *protocol.WhoAmI
}

// Empty reports whether the update carries nothing new.
func (u Update) Empty() bool {
	return len(u.Messages) == 0 && len(u.Yodels) == 0 && len(u.Errors) == 0 && u.Identity == nil
}

// Option configures a Room.
type Option func(*Room)

// WithLogger sets the room logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Room) { r.log = l }
}

// WithNonceSource replaces the nonce generator, which defaults to random
// UUIDs.
func WithNonceSource(next func() string) Option {
	return func(r *Room) { r.nonce = next }
}

// Room is a chat session on top of a messaging client.
// It is not safe for concurrent use.
type Room struct {
	client api.MessageClient[protocol.Payload]
	log    zerolog.Logger
	nonce  func() string

	transcript []protocol.MsgBroadcast
	seen       map[messageKey]struct{}
	// Errors answering a request are reported once per nonce. Errors
	// without a nonce are only matched against the previous poll.
	seenErrors map[protocol.GenericError]struct{}
	lastErrors map[protocol.GenericError]int
	yodels     map[string]protocol.Yodel
	identity   *protocol.WhoAmI
}

// messageKey identifies a transcript entry. Messages without a server ID
// fall back to their author, text and timestamp.
type messageKey struct {
	id     string
	author protocol.Author
	text   string
	time   int64
}

func keyOf(m protocol.MsgBroadcast) messageKey {
	if m.MessageID != "" {
		return messageKey{id: m.MessageID}
	}
	return messageKey{author: m.Author, text: m.Message, time: m.Time}
}

// NewRoom creates a room that talks through c.
func NewRoom(c api.MessageClient[protocol.Payload], opts ...Option) *Room {
	r := &Room{
		client:     c,
		log:        zerolog.Nop(),
		nonce:      uuid.NewString,
		seen:       make(map[messageKey]struct{}),
		seenErrors: make(map[protocol.GenericError]struct{}),
		lastErrors: make(map[protocol.GenericError]int),
		yodels:     make(map[string]protocol.Yodel),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Say sends text to the room and returns the request nonce.
// Blank text is rejected locally with api.ErrEmptyMessage.
func (r *Room) Say(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", api.ErrEmptyMessage
	}
	n := r.nonce()
	r.client.SendMessage(protocol.MsgSend{Message: text, Nonce: n})
	return n, nil
}

// RequestHistory asks for stored messages between from and to.
func (r *Room) RequestHistory(from, to int64) string {
	n := r.nonce()
	r.client.SendMessage(protocol.MsgHistory{From: from, To: to, Nonce: n})
	return n
}

// RequestIdentity asks the server who this client is.
func (r *Room) RequestIdentity() string {
	n := r.nonce()
	r.client.SendMessage(protocol.WhoAmI{Nonce: n})
	return n
}

// CreateYodel asks the server to create a yodel called name.
func (r *Room) CreateYodel(name string) string {
	n := r.nonce()
	r.client.SendMessage(protocol.YodelCreate{Name: name, Nonce: n})
	return n
}

// GetYodel asks the server to describe yodel id.
func (r *Room) GetYodel(id string) string {
	n := r.nonce()
	r.client.SendMessage(protocol.YodelGet{YodelID: id, Nonce: n})
	return n
}

// Sync polls the client once and folds the payloads into the room.
func (r *Room) Sync() Update {
	var u Update
	batch := make(map[protocol.GenericError]int)
	for _, p := range r.client.PollMessages() {
		switch v := p.(type) {
		case protocol.MsgBroadcast:
			if r.record(v) {
				u.Messages = append(u.Messages, v)
			}
		case protocol.MsgHistory:
			for _, stored := range v.Messages {
				if stored == nil {
					continue
				}
				if m := stored.Broadcast(); r.record(m) {
					u.Messages = append(u.Messages, m)
				}
			}
		case protocol.WhoAmI:
			if v.ID == "" {
				continue
			}
			if r.identity == nil || *r.identity != v {
				known, reported := v, v
				r.identity = &known
				u.Identity = &reported
			}
		case protocol.Yodel:
			if known, ok := r.yodels[v.YodelID]; !ok || known != v {
				r.yodels[v.YodelID] = v
				u.Yodels = append(u.Yodels, v)
			}
		case protocol.GenericError:
			if !r.newError(v, batch) {
				continue
			}
			u.Errors = append(u.Errors, serverError(v))
			r.log.Warn().Str("error", v.Error).Str("nonce", v.Nonce).Msg(v.Message)
		default:
			r.log.Debug().Str("type", p.Type()).Msg("ignoring payload")
		}
	}
	r.lastErrors = batch
	if len(u.Messages) > 0 {
		sortMessages(r.transcript)
		sortMessages(u.Messages)
	}
	return u
}

// newError reports whether e should surface in this poll. A nonce-less
// error repeated n times in the previous poll is quiet for its first n
// occurrences in this one.
func (r *Room) newError(e protocol.GenericError, batch map[protocol.GenericError]int) bool {
	if e.Nonce != "" {
		if _, dup := r.seenErrors[e]; dup {
			return false
		}
		r.seenErrors[e] = struct{}{}
		return true
	}
	batch[e]++
	return batch[e] > r.lastErrors[e]
}

// record adds m to the transcript unless it was seen already.
func (r *Room) record(m protocol.MsgBroadcast) bool {
	k := keyOf(m)
	if _, dup := r.seen[k]; dup {
		return false
	}
	r.seen[k] = struct{}{}
	r.transcript = append(r.transcript, m)
	return true
}

// Transcript returns every known message ordered by time, then ID.
func (r *Room) Transcript() []protocol.MsgBroadcast {
	return slices.Clone(r.transcript)
}

// Identity returns the identity reported by the server, if any.
func (r *Room) Identity() (protocol.WhoAmI, bool) {
	if r.identity == nil {
		return protocol.WhoAmI{}, false
	}
	return *r.identity, true
}

// Yodel returns a yodel reported by the server.
func (r *Room) Yodel(id string) (protocol.Yodel, bool) {
	y, ok := r.yodels[id]
	return y, ok
}

func serverError(e protocol.GenericError) *api.Error {
	msg := e.Error
	if e.Message != "" {
		msg += ": " + e.Message
	}
	err := api.NewError(api.ErrCodeServer, msg)
	if e.Nonce != "" {
		err.WithContext("nonce", e.Nonce)
	}
	return err
}

func sortMessages(ms []protocol.MsgBroadcast) {
	slices.SortStableFunc(ms, func(a, b protocol.MsgBroadcast) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return strings.Compare(a.MessageID, b.MessageID)
	})
}
