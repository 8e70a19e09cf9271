package protocol

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestDecodeLoginSuccess(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	pkt := MarshalPacket(IDLoginSuccess, func(w *bytes.Buffer) {
		WriteString(w, id.String())
		WriteString(w, "Notch")
	})

	decoded, err := DecodeLogin(pkt)
	if err != nil {
		t.Fatalf("DecodeLogin error: %v", err)
	}
	success, ok := decoded.(LoginSuccess)
	if !ok {
		t.Fatalf("DecodeLogin = %T, want LoginSuccess", decoded)
	}
	if success.UUID != id {
		t.Errorf("UUID = %s, want %s", success.UUID, id)
	}
	if success.Username != "Notch" {
		t.Errorf("Username = %q, want %q", success.Username, "Notch")
	}
}

func TestDecodeLoginUnknownOrdinal(t *testing.T) {
	if _, err := DecodeLogin(&Packet{ID: 0x7F}); err == nil {
		t.Fatal("expected error for unknown login ordinal")
	}
}

func TestDecodeLoginBadUUID(t *testing.T) {
	pkt := MarshalPacket(IDLoginSuccess, func(w *bytes.Buffer) {
		WriteString(w, "not-a-uuid")
		WriteString(w, "Notch")
	})
	if _, err := DecodeLogin(pkt); err == nil {
		t.Fatal("expected error for malformed uuid")
	}
}

func TestDecodeKeepAlive(t *testing.T) {
	pkt := MarshalPacket(IDKeepAlive, func(w *bytes.Buffer) {
		WriteInt64(w, 42)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	ka, ok := decoded.(KeepAlive)
	if !ok {
		t.Fatalf("DecodePlay = %T, want KeepAlive", decoded)
	}
	if ka.ID != 42 {
		t.Errorf("ID = %d, want 42", ka.ID)
	}
}

func TestDecodeBlockChange(t *testing.T) {
	pkt := MarshalPacket(IDBlockChange, func(w *bytes.Buffer) {
		WriteInt64(w, int64(PackPosition(10, 64, 20)))
		WriteUint16(w, 1<<4)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	bc := decoded.(BlockChange)
	x, y, z := UnpackPosition(bc.Position)
	if x != 10 || y != 64 || z != 20 {
		t.Errorf("position = (%d, %d, %d), want (10, 64, 20)", x, y, z)
	}
	if bc.BlockState != 1<<4 {
		t.Errorf("state = %#x, want %#x", bc.BlockState, 1<<4)
	}
}

func TestDecodeMultiBlockChange(t *testing.T) {
	pkt := MarshalPacket(IDMultiBlockChange, func(w *bytes.Buffer) {
		WriteInt32(w, 2)
		WriteInt32(w, -1)
		WriteVarInt(w, 2)
		WriteUint16(w, 0x4053) // x=3, z=5, y=64
		WriteUint16(w, 1<<4)
		WriteUint16(w, 0x0000)
		WriteUint16(w, 7<<4)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	mbc := decoded.(MultiBlockChange)
	if mbc.ChunkX != 2 || mbc.ChunkZ != -1 {
		t.Errorf("chunk = (%d, %d), want (2, -1)", mbc.ChunkX, mbc.ChunkZ)
	}
	if len(mbc.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(mbc.Records))
	}
	if mbc.Records[0].Local != 0x4053 || mbc.Records[0].BlockState != 1<<4 {
		t.Errorf("record 0 = %+v", mbc.Records[0])
	}
}

func TestDecodeJoinGame(t *testing.T) {
	pkt := MarshalPacket(IDJoinGame, func(w *bytes.Buffer) {
		WriteInt32(w, 321)
		WriteByte(w, 0)
		WriteInt32(w, 0)
		WriteByte(w, 2)
		WriteByte(w, 20)
		WriteString(w, "default")
		WriteBool(w, false)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	jg := decoded.(JoinGame)
	if jg.EntityID != 321 {
		t.Errorf("EntityID = %d, want 321", jg.EntityID)
	}
	if jg.LevelType != "default" {
		t.Errorf("LevelType = %q, want %q", jg.LevelType, "default")
	}
}

func TestDecodePlayerPositionAndLook(t *testing.T) {
	pkt := MarshalPacket(IDPlayerPositionLook, func(w *bytes.Buffer) {
		WriteFloat64(w, 1.5)
		WriteFloat64(w, 65.0)
		WriteFloat64(w, -3.5)
		WriteFloat32(w, 90)
		WriteFloat32(w, -10)
		WriteByte(w, 0x0B)
		WriteVarInt(w, 7)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	ppl := decoded.(PlayerPositionAndLook)
	if ppl.X != 1.5 || ppl.Y != 65.0 || ppl.Z != -3.5 {
		t.Errorf("position = (%v, %v, %v)", ppl.X, ppl.Y, ppl.Z)
	}
	if ppl.Flags != 0x0B || ppl.TeleportID != 7 {
		t.Errorf("flags = %#x, teleport = %d", ppl.Flags, ppl.TeleportID)
	}
}

func TestDecodePlayerListAddAndRemove(t *testing.T) {
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")

	add := MarshalPacket(IDPlayerList, func(w *bytes.Buffer) {
		WriteVarInt(w, PlayerListAdd)
		WriteVarInt(w, 1)
		WriteUUID(w, id)
		WriteString(w, "Notch")
		WriteVarInt(w, 1) // one property
		WriteString(w, "textures")
		WriteString(w, "blob")
		WriteBool(w, true)
		WriteString(w, "sig")
		WriteVarInt(w, 1)    // gamemode
		WriteVarInt(w, 35)   // ping
		WriteBool(w, false)  // no display name
	})
	decoded, err := DecodePlay(add)
	if err != nil {
		t.Fatalf("DecodePlay(add) error: %v", err)
	}
	pl := decoded.(PlayerList)
	if pl.Action != PlayerListAdd || len(pl.Entries) != 1 {
		t.Fatalf("add = %+v", pl)
	}
	if pl.Entries[0].UUID != id || pl.Entries[0].Name != "Notch" {
		t.Errorf("entry = %+v", pl.Entries[0])
	}

	remove := MarshalPacket(IDPlayerList, func(w *bytes.Buffer) {
		WriteVarInt(w, PlayerListRemove)
		WriteVarInt(w, 1)
		WriteUUID(w, id)
	})
	decoded, err = DecodePlay(remove)
	if err != nil {
		t.Fatalf("DecodePlay(remove) error: %v", err)
	}
	pl = decoded.(PlayerList)
	if pl.Action != PlayerListRemove || len(pl.Entries) != 1 || pl.Entries[0].UUID != id {
		t.Fatalf("remove = %+v", pl)
	}
}

func TestDecodeUpdateHealth(t *testing.T) {
	pkt := MarshalPacket(IDUpdateHealth, func(w *bytes.Buffer) {
		WriteFloat32(w, 13)
		WriteVarInt(w, 18)
		WriteFloat32(w, 2.5)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	uh := decoded.(UpdateHealth)
	if uh.Health != 13 || uh.Food != 18 || uh.Saturation != 2.5 {
		t.Errorf("UpdateHealth = %+v", uh)
	}
}

func TestDecodeEntityVelocity(t *testing.T) {
	pkt := MarshalPacket(IDEntityVelocity, func(w *bytes.Buffer) {
		WriteVarInt(w, 99)
		WriteInt16(w, -1200)
		WriteInt16(w, 0)
		WriteInt16(w, 8000)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	ev := decoded.(EntityVelocity)
	if ev.EntityID != 99 || ev.VelocityX != -1200 || ev.VelocityZ != 8000 {
		t.Errorf("EntityVelocity = %+v", ev)
	}
}

func TestDecodeTimeUpdate(t *testing.T) {
	pkt := MarshalPacket(IDTimeUpdate, func(w *bytes.Buffer) {
		WriteInt64(w, 123456)
		WriteInt64(w, 6000)
	})
	decoded, err := DecodePlay(pkt)
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	tu := decoded.(TimeUpdate)
	if tu.WorldAge != 123456 || tu.TimeOfDay != 6000 {
		t.Errorf("TimeUpdate = %+v", tu)
	}
}

func TestDecodeUnknownOrdinal(t *testing.T) {
	decoded, err := DecodePlay(&Packet{ID: 0x79, Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("DecodePlay error: %v", err)
	}
	u, ok := decoded.(Unknown)
	if !ok {
		t.Fatalf("DecodePlay = %T, want Unknown", decoded)
	}
	if u.ID != 0x79 || len(u.Data) != 3 {
		t.Errorf("Unknown = %+v", u)
	}
}

func TestDecodeShortFrame(t *testing.T) {
	pkt := &Packet{ID: IDUpdateHealth, Data: []byte{0x00}}
	_, err := DecodePlay(pkt)
	if err == nil {
		t.Fatal("expected error for truncated UpdateHealth")
	}
	if _, ok := err.(*DecodeError); !ok {
		t.Errorf("error = %T, want *DecodeError", err)
	}
}

// Serverbound round trips: encode each outbound variant, then read
// the fields back with the matching primitives.
func TestServerboundRoundTrips(t *testing.T) {
	t.Run("Handshake", func(t *testing.T) {
		pkt := C2SHandshake{Version: 340, Host: "localhost", Port: 25565, Next: 2}.Marshal()
		r := bytes.NewReader(pkt.Data)
		version, _, _ := ReadVarInt(r)
		host, _ := ReadString(r)
		port, _ := ReadUint16(r)
		next, _, _ := ReadVarInt(r)
		if version != 340 || host != "localhost" || port != 25565 || next != 2 {
			t.Errorf("round trip = (%d, %q, %d, %d)", version, host, port, next)
		}
	})

	t.Run("LoginStart", func(t *testing.T) {
		pkt := C2SLoginStart{Name: "bilbo"}.Marshal()
		name, _ := ReadString(bytes.NewReader(pkt.Data))
		if name != "bilbo" {
			t.Errorf("name = %q", name)
		}
	})

	t.Run("TeleportConfirm", func(t *testing.T) {
		pkt := C2STeleportConfirm{TeleportID: 7}.Marshal()
		id, _, _ := ReadVarInt(bytes.NewReader(pkt.Data))
		if pkt.ID != IDC2STeleportConfirm || id != 7 {
			t.Errorf("id = %d", id)
		}
	})

	t.Run("Chat", func(t *testing.T) {
		pkt := C2SChat{Message: "hello"}.Marshal()
		msg, _ := ReadString(bytes.NewReader(pkt.Data))
		if pkt.ID != IDC2SChat || msg != "hello" {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("ClientStatus", func(t *testing.T) {
		pkt := C2SClientStatus{Action: ClientStatusRespawn}.Marshal()
		action, _, _ := ReadVarInt(bytes.NewReader(pkt.Data))
		if action != 0 {
			t.Errorf("action = %d", action)
		}
	})

	t.Run("ClientSettings", func(t *testing.T) {
		pkt := C2SClientSettings{
			Locale:        "en-US",
			ViewDistance:  4,
			ChatMode:      0,
			ChatColors:    false,
			DisplayedSkin: 0xFF,
			MainHand:      0,
		}.Marshal()
		r := bytes.NewReader(pkt.Data)
		locale, _ := ReadString(r)
		view, _ := ReadByte(r)
		chatMode, _, _ := ReadVarInt(r)
		colors, _ := ReadBool(r)
		skin, _ := ReadByte(r)
		hand, _, _ := ReadVarInt(r)
		if locale != "en-US" || view != 4 || chatMode != 0 || colors || skin != 0xFF || hand != 0 {
			t.Errorf("round trip = (%q, %d, %d, %v, %#x, %d)", locale, view, chatMode, colors, skin, hand)
		}
	})

	t.Run("KeepAlive", func(t *testing.T) {
		pkt := C2SKeepAlive{ID: 42}.Marshal()
		id, _ := ReadInt64(bytes.NewReader(pkt.Data))
		if pkt.ID != IDC2SKeepAlive || id != 42 {
			t.Errorf("id = %d", id)
		}
	})

	t.Run("PlayerPositionAndLook", func(t *testing.T) {
		pkt := C2SPlayerPositionAndLook{X: 1.5, Y: 65, Z: -3.5, Yaw: 90, Pitch: -10, OnGround: true}.Marshal()
		r := bytes.NewReader(pkt.Data)
		x, _ := ReadFloat64(r)
		y, _ := ReadFloat64(r)
		z, _ := ReadFloat64(r)
		yaw, _ := ReadFloat32(r)
		pitch, _ := ReadFloat32(r)
		ground, _ := ReadBool(r)
		if x != 1.5 || y != 65 || z != -3.5 || yaw != 90 || pitch != -10 || !ground {
			t.Errorf("round trip = (%v, %v, %v, %v, %v, %v)", x, y, z, yaw, pitch, ground)
		}
	})
}
