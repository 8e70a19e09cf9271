package protocol

import "bytes"

// Serverbound packet ordinals for protocol 340. Handshake and
// LoginStart share ordinal 0 in their respective states.
const (
	IDC2SHandshake          int32 = 0x00 // handshake state
	IDC2SLoginStart         int32 = 0x00 // login state
	IDC2STeleportConfirm    int32 = 0x00
	IDC2SChat               int32 = 0x02
	IDC2SClientStatus       int32 = 0x03
	IDC2SClientSettings     int32 = 0x04
	IDC2SKeepAlive          int32 = 0x0B
	IDC2SPlayerPositionLook int32 = 0x0E
)

// ClientPacket is an outbound packet that knows how to frame itself.
type ClientPacket interface {
	Marshal() *Packet
}

// C2SHandshake opens the connection and selects the next state.
type C2SHandshake struct {
	Version int32
	Host    string
	Port    uint16
	Next    int32
}

func (p C2SHandshake) Marshal() *Packet {
	return MarshalPacket(IDC2SHandshake, func(w *bytes.Buffer) {
		WriteVarInt(w, p.Version)
		WriteString(w, p.Host)
		WriteUint16(w, p.Port)
		WriteVarInt(w, p.Next)
	})
}

// C2SLoginStart begins an offline-mode login.
type C2SLoginStart struct {
	Name string
}

func (p C2SLoginStart) Marshal() *Packet {
	return MarshalPacket(IDC2SLoginStart, func(w *bytes.Buffer) {
		WriteString(w, p.Name)
	})
}

// C2STeleportConfirm acknowledges a server teleport.
type C2STeleportConfirm struct {
	TeleportID int32
}

func (p C2STeleportConfirm) Marshal() *Packet {
	return MarshalPacket(IDC2STeleportConfirm, func(w *bytes.Buffer) {
		WriteVarInt(w, p.TeleportID)
	})
}

// C2SChat sends a chat line.
type C2SChat struct {
	Message string
}

func (p C2SChat) Marshal() *Packet {
	return MarshalPacket(IDC2SChat, func(w *bytes.Buffer) {
		WriteString(w, p.Message)
	})
}

// Client status actions.
const ClientStatusRespawn int32 = 0

// C2SClientStatus requests a status action (respawn, stats).
type C2SClientStatus struct {
	Action int32
}

func (p C2SClientStatus) Marshal() *Packet {
	return MarshalPacket(IDC2SClientStatus, func(w *bytes.Buffer) {
		WriteVarInt(w, p.Action)
	})
}

// C2SClientSettings declares locale and view options after join.
type C2SClientSettings struct {
	Locale        string
	ViewDistance  int8
	ChatMode      int32
	ChatColors    bool
	DisplayedSkin byte
	MainHand      int32
}

func (p C2SClientSettings) Marshal() *Packet {
	return MarshalPacket(IDC2SClientSettings, func(w *bytes.Buffer) {
		WriteString(w, p.Locale)
		WriteByte(w, byte(p.ViewDistance))
		WriteVarInt(w, p.ChatMode)
		WriteBool(w, p.ChatColors)
		WriteByte(w, p.DisplayedSkin)
		WriteVarInt(w, p.MainHand)
	})
}

// C2SKeepAlive echoes a server keep-alive id.
type C2SKeepAlive struct {
	ID int64
}

func (p C2SKeepAlive) Marshal() *Packet {
	return MarshalPacket(IDC2SKeepAlive, func(w *bytes.Buffer) {
		WriteInt64(w, p.ID)
	})
}

// C2SPlayerPositionAndLook replicates the self position after a tick
// or teleport.
type C2SPlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (p C2SPlayerPositionAndLook) Marshal() *Packet {
	return MarshalPacket(IDC2SPlayerPositionLook, func(w *bytes.Buffer) {
		WriteFloat64(w, p.X)
		WriteFloat64(w, p.Y)
		WriteFloat64(w, p.Z)
		WriteFloat32(w, p.Yaw)
		WriteFloat32(w, p.Pitch)
		WriteBool(w, p.OnGround)
	})
}
