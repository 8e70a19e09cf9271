package events

import (
	"testing"

	"github.com/google/uuid"

	"github.com/StoreStation/minebot/pkg/protocol"
	"github.com/StoreStation/minebot/pkg/world"
)

var selfID = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

func chatPacket(player, message string) protocol.ChatMessage {
	return protocol.ChatMessage{
		JSON: `{"translate":"chat.type.text","with":[{"text":"` + player +
			`"},{"extra":[{"text":"` + message + `"}],"text":""}]}`,
	}
}

func TestChatMatcher(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	matcher := ListenChat()

	ev := matcher.MatchPacket(chatPacket("Notch", "hello"), m)
	chat, ok := ev.(ChatMessage)
	if !ok {
		t.Fatalf("event = %T, want ChatMessage", ev)
	}
	if chat.Player != "Notch" || chat.Message != "hello" {
		t.Errorf("event = %+v", chat)
	}
}

func TestChatMatcherIgnoresSelf(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	if ev := ListenChat().MatchPacket(chatPacket("bilbo", "talking to myself"), m); ev != nil {
		t.Errorf("own chat produced event %+v", ev)
	}
}

func TestChatMatcherIgnoresUnparseable(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	pkt := protocol.ChatMessage{JSON: `{"text":"Server restarting"}`}
	if ev := ListenChat().MatchPacket(pkt, m); ev != nil {
		t.Errorf("server notice produced event %+v", ev)
	}
}

func TestHealthMatcherObservesPreviousState(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	matcher := ListenHealth()

	// Mirror starts at 10 hearts; 13 half-hearts is a change.
	pkt := protocol.UpdateHealth{Health: 13, Food: 20}
	ev := matcher.MatchPacket(pkt, m)
	hc, ok := ev.(HealthChanged)
	if !ok {
		t.Fatalf("event = %T, want HealthChanged", ev)
	}
	if hc.Old != 10 || hc.New != 6.5 {
		t.Errorf("event = %+v, want old 10 new 6.5", hc)
	}

	// After the mirror applies the packet, the same value no longer
	// triggers.
	m.Handle(pkt)
	if ev := matcher.MatchPacket(pkt, m); ev != nil {
		t.Errorf("unchanged health produced event %+v", ev)
	}
}

func TestPlayerListMatcher(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	other := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	matcher := ListenPlayerList()

	add := protocol.PlayerList{
		Action:  protocol.PlayerListAdd,
		Entries: []protocol.PlayerListEntry{{UUID: other, Name: "Notch"}},
	}
	ev := matcher.MatchPacket(add, m)
	joined, ok := ev.(PlayersJoined)
	if !ok {
		t.Fatalf("event = %T, want PlayersJoined", ev)
	}
	if len(joined.Usernames) != 1 || joined.Usernames[0] != "Notch" {
		t.Errorf("event = %+v", joined)
	}
	m.Handle(add)

	// Removal is uuid-only; the username resolves against the
	// not-yet-mutated roster.
	remove := protocol.PlayerList{
		Action:  protocol.PlayerListRemove,
		Entries: []protocol.PlayerListEntry{{UUID: other}},
	}
	ev = matcher.MatchPacket(remove, m)
	left, ok := ev.(PlayersLeft)
	if !ok {
		t.Fatalf("event = %T, want PlayersLeft", ev)
	}
	if len(left.Usernames) != 1 || left.Usernames[0] != "Notch" {
		t.Errorf("event = %+v", left)
	}
}

func TestTickMatcher(t *testing.T) {
	matcher := ListenTick(105)
	if ev := matcher.MatchTick(104); ev != nil {
		t.Errorf("early tick produced event %+v", ev)
	}
	ev := matcher.MatchTick(105)
	tr, ok := ev.(TickReached)
	if !ok {
		t.Fatalf("event = %T, want TickReached", ev)
	}
	if tr.Tick != 105 {
		t.Errorf("tick = %d, want 105", tr.Tick)
	}
	// Overshoot still reports the requested tick.
	if ev := matcher.MatchTick(110).(TickReached); ev.Tick != 105 {
		t.Errorf("overshoot tick = %d, want 105", ev.Tick)
	}
}

func TestMatcherSetOrder(t *testing.T) {
	m := world.NewMirror(selfID, "bilbo")
	set := Matchers{ListenHealth(), ListenChat()}

	// Only the chat matcher can fire for a chat packet, regardless
	// of order.
	ev := set.MatchPacket(chatPacket("Notch", "hi"), m)
	if _, ok := ev.(ChatMessage); !ok {
		t.Fatalf("event = %T, want ChatMessage", ev)
	}

	// Tick matchers answer MatchTick, the rest stay silent.
	set = Matchers{ListenChat(), ListenTick(5)}
	if ev := set.MatchTick(5); ev == nil {
		t.Fatal("matcher set missed the tick")
	}
}
