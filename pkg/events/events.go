package events

import (
	"github.com/StoreStation/minebot/pkg/chat"
	"github.com/StoreStation/minebot/pkg/protocol"
	"github.com/StoreStation/minebot/pkg/world"
)

// Event is something the embedding application asked to be woken up
// for.
type Event interface {
	event()
}

// ChatMessage is a chat line from another player.
type ChatMessage struct {
	Player  string
	Message string
}

// HealthChanged fires when the reported health differs from the
// mirrored value. Old is the health observed before the packet was
// applied.
type HealthChanged struct {
	Old, New float32
}

// PlayersJoined lists usernames added to the roster.
type PlayersJoined struct {
	Usernames []string
}

// PlayersLeft lists usernames removed from the roster.
type PlayersLeft struct {
	Usernames []string
}

// TickReached fires once the clock reaches the requested tick.
type TickReached struct {
	Tick int64
}

func (ChatMessage) event()   {}
func (HealthChanged) event() {}
func (PlayersJoined) event() {}
func (PlayersLeft) event()   {}
func (TickReached) event()   {}

type matcherKind int

const (
	matchChat matcherKind = iota
	matchHealth
	matchPlayerList
	matchTick
)

// Matcher is one pattern that can produce at most one event from a
// packet or a tick crossing. Matchers are plain values and can be
// copied freely.
type Matcher struct {
	kind       matcherKind
	targetTick int64
}

// ListenChat matches chat messages from other players.
func ListenChat() Matcher { return Matcher{kind: matchChat} }

// ListenHealth matches strict changes to the mirrored health.
func ListenHealth() Matcher { return Matcher{kind: matchHealth} }

// ListenPlayerList matches roster additions and removals.
func ListenPlayerList() Matcher { return Matcher{kind: matchPlayerList} }

// ListenTick matches the clock reaching the target tick.
func ListenTick(target int64) Matcher {
	return Matcher{kind: matchTick, targetTick: target}
}

// MatchPacket evaluates the matcher against a packet. The mirror
// must not have applied the packet yet: edge-triggered patterns
// compare against the previous state.
func (m Matcher) MatchPacket(pkt protocol.ServerPacket, mirror *world.Mirror) Event {
	switch m.kind {
	case matchChat:
		p, ok := pkt.(protocol.ChatMessage)
		if !ok {
			return nil
		}
		player, message, ok := chat.ParsePlayerChat(p.JSON)
		if !ok || player == mirror.Username() {
			return nil
		}
		return ChatMessage{Player: player, Message: message}

	case matchHealth:
		p, ok := pkt.(protocol.UpdateHealth)
		if !ok {
			return nil
		}
		newHealth := p.Health / 2
		if newHealth == mirror.Health() {
			return nil
		}
		return HealthChanged{Old: mirror.Health(), New: newHealth}

	case matchPlayerList:
		p, ok := pkt.(protocol.PlayerList)
		if !ok {
			return nil
		}
		switch p.Action {
		case protocol.PlayerListAdd:
			var names []string
			for _, e := range p.Entries {
				names = append(names, e.Name)
			}
			if len(names) == 0 {
				return nil
			}
			return PlayersJoined{Usernames: names}
		case protocol.PlayerListRemove:
			var names []string
			for _, e := range p.Entries {
				// The entry is uuid-only; the username is still on
				// the roster because the mirror applies after us.
				if name, ok := mirror.PlayerName(e.UUID); ok {
					names = append(names, name)
				}
			}
			if len(names) == 0 {
				return nil
			}
			return PlayersLeft{Usernames: names}
		}
		return nil
	}
	return nil
}

// MatchTick evaluates the matcher against a tick crossing.
func (m Matcher) MatchTick(tick int64) Event {
	if m.kind == matchTick && tick >= m.targetTick {
		return TickReached{Tick: m.targetTick}
	}
	return nil
}

// Matchers is an ordered pattern set; the first hit wins.
type Matchers []Matcher

// MatchPacket returns the first matcher's event for the packet, or
// nil.
func (ms Matchers) MatchPacket(pkt protocol.ServerPacket, mirror *world.Mirror) Event {
	for _, m := range ms {
		if ev := m.MatchPacket(pkt, mirror); ev != nil {
			return ev
		}
	}
	return nil
}

// MatchTick returns the first matcher's event for the tick, or nil.
func (ms Matchers) MatchTick(tick int64) Event {
	for _, m := range ms {
		if ev := m.MatchTick(tick); ev != nil {
			return ev
		}
	}
	return nil
}
