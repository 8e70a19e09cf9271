package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Clientbound packet ordinals for protocol 340 (play state unless
// noted).
const (
	IDLoginSuccess       int32 = 0x02 // login state
	IDSpawnPlayer        int32 = 0x05
	IDBlockChange        int32 = 0x0B
	IDChatMessage        int32 = 0x0F
	IDMultiBlockChange   int32 = 0x10
	IDUnloadChunk        int32 = 0x1D
	IDKeepAlive          int32 = 0x1F
	IDChunkData          int32 = 0x20
	IDJoinGame           int32 = 0x23
	IDPlayerAbilities    int32 = 0x2C
	IDPlayerList         int32 = 0x2E
	IDPlayerPositionLook int32 = 0x2F
	IDEntityVelocity     int32 = 0x3E
	IDUpdateHealth       int32 = 0x41
	IDTimeUpdate         int32 = 0x47
)

// ServerPacket is a decoded clientbound packet.
type ServerPacket interface {
	serverPacket()
}

// LoginSuccess completes the offline-mode login handshake. The
// server sends the uuid as a dashed string in this protocol version.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

// SpawnPlayer announces a named player entity entering view. The
// trailing entity metadata is not modeled and is discarded.
type SpawnPlayer struct {
	EntityID   int32
	UUID       uuid.UUID
	X, Y, Z    float64
	Yaw, Pitch float64
}

// BlockChange is a single block update, position packed per the wire
// layout.
type BlockChange struct {
	Position   uint64
	BlockState uint16
}

// ChatMessage carries a JSON chat component and a display position.
type ChatMessage struct {
	JSON     string
	Position byte
}

// BlockRecord is one update inside a MultiBlockChange, addressed by
// packed local address.
type BlockRecord struct {
	Local      uint16
	BlockState uint16
}

// MultiBlockChange applies several block updates to one chunk.
type MultiBlockChange struct {
	ChunkX, ChunkZ int32
	Records        []BlockRecord
}

// UnloadChunk drops a chunk column.
type UnloadChunk struct {
	ChunkX, ChunkZ int32
}

// KeepAlive must be echoed back verbatim.
type KeepAlive struct {
	ID int64
}

// ChunkData carries a bit-packed chunk column payload. Data is kept
// opaque here and unpacked by the chunk store.
type ChunkData struct {
	ChunkX, ChunkZ int32
	FullChunk      bool
	PrimaryBitmask int32
	Data           []byte
}

// JoinGame establishes the self entity id.
type JoinGame struct {
	EntityID         int32
	GameMode         byte
	Dimension        int32
	Difficulty       byte
	MaxPlayers       byte
	LevelType        string
	ReducedDebugInfo bool
}

// PlayerAbilities is the server's ability grant after join.
type PlayerAbilities struct {
	Flags       byte
	FlyingSpeed float32
	FOV         float32
}

// Player list actions.
const (
	PlayerListAdd    int32 = 0
	PlayerListRemove int32 = 4
)

// PlayerListEntry is one player in a PlayerList update. Name is only
// present for the add action.
type PlayerListEntry struct {
	UUID uuid.UUID
	Name string
}

// PlayerList adds or removes players from the roster. Actions other
// than add and remove are decoded field-accurately and dropped.
type PlayerList struct {
	Action  int32
	Entries []PlayerListEntry
}

// PlayerPositionAndLook is the server's authoritative teleport. Each
// flag bit marks its field as a delta instead of an absolute value.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      byte
	TeleportID int32
}

// EntityVelocity sets an entity's velocity as raw i16 triples.
type EntityVelocity struct {
	EntityID                        int32
	VelocityX, VelocityY, VelocityZ int16
}

// UpdateHealth reports health in half-hearts on the wire.
type UpdateHealth struct {
	Health     float32
	Food       int32
	Saturation float32
}

// TimeUpdate synchronises the tick clock with the server world age.
type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

// Unknown is a play-state packet the client does not model. The
// frame has already been consumed, so the connection stays valid.
type Unknown struct {
	ID   int32
	Data []byte
}

func (LoginSuccess) serverPacket()          {}
func (SpawnPlayer) serverPacket()           {}
func (BlockChange) serverPacket()           {}
func (ChatMessage) serverPacket()           {}
func (MultiBlockChange) serverPacket()      {}
func (UnloadChunk) serverPacket()           {}
func (KeepAlive) serverPacket()             {}
func (ChunkData) serverPacket()             {}
func (JoinGame) serverPacket()              {}
func (PlayerAbilities) serverPacket()       {}
func (PlayerList) serverPacket()            {}
func (PlayerPositionAndLook) serverPacket() {}
func (EntityVelocity) serverPacket()        {}
func (UpdateHealth) serverPacket()          {}
func (TimeUpdate) serverPacket()            {}
func (Unknown) serverPacket()               {}

// DecodeLogin decodes a login-state clientbound packet. Unknown
// ordinals are fatal here: anything but LoginSuccess means the
// handshake went wrong.
func DecodeLogin(pkt *Packet) (ServerPacket, error) {
	if pkt.ID != IDLoginSuccess {
		return nil, &DecodeError{Reason: fmt.Sprintf("unexpected login packet 0x%02X", pkt.ID)}
	}
	r := bytes.NewReader(pkt.Data)
	rawUUID, err := ReadString(r)
	if err != nil {
		return nil, decodeFailed("LoginSuccess", err)
	}
	name, err := ReadString(r)
	if err != nil {
		return nil, decodeFailed("LoginSuccess", err)
	}
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("LoginSuccess uuid %q: %v", rawUUID, err)}
	}
	return LoginSuccess{UUID: id, Username: name}, nil
}

// DecodePlay decodes a play-state clientbound packet. Ordinals the
// client does not model come back as Unknown.
func DecodePlay(pkt *Packet) (ServerPacket, error) {
	r := bytes.NewReader(pkt.Data)
	switch pkt.ID {
	case IDSpawnPlayer:
		return decodeSpawnPlayer(r)
	case IDBlockChange:
		return decodeBlockChange(r)
	case IDChatMessage:
		return decodeChatMessage(r)
	case IDMultiBlockChange:
		return decodeMultiBlockChange(r)
	case IDUnloadChunk:
		return decodeUnloadChunk(r)
	case IDKeepAlive:
		id, err := ReadInt64(r)
		if err != nil {
			return nil, decodeFailed("KeepAlive", err)
		}
		return KeepAlive{ID: id}, nil
	case IDChunkData:
		return decodeChunkData(r)
	case IDJoinGame:
		return decodeJoinGame(r)
	case IDPlayerAbilities:
		return decodePlayerAbilities(r)
	case IDPlayerList:
		return decodePlayerList(r)
	case IDPlayerPositionLook:
		return decodePlayerPositionAndLook(r)
	case IDEntityVelocity:
		return decodeEntityVelocity(r)
	case IDUpdateHealth:
		return decodeUpdateHealth(r)
	case IDTimeUpdate:
		return decodeTimeUpdate(r)
	default:
		return Unknown{ID: pkt.ID, Data: pkt.Data}, nil
	}
}

func decodeSpawnPlayer(r *bytes.Reader) (ServerPacket, error) {
	var p SpawnPlayer
	eid, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	p.EntityID = eid
	raw, err := ReadUUID(r)
	if err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	p.UUID = uuid.UUID(raw)
	if p.X, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	if p.Y, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	if p.Z, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	yaw, err := ReadByte(r)
	if err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	pitch, err := ReadByte(r)
	if err != nil {
		return nil, decodeFailed("SpawnPlayer", err)
	}
	// Angles are 1/256ths of a full turn on the wire. The trailing
	// entity metadata is discarded.
	p.Yaw = float64(yaw) * 360.0 / 256.0
	p.Pitch = float64(pitch) * 360.0 / 256.0
	return p, nil
}

func decodeBlockChange(r *bytes.Reader) (ServerPacket, error) {
	pos, err := ReadUint64(r)
	if err != nil {
		return nil, decodeFailed("BlockChange", err)
	}
	state, err := ReadUint16(r)
	if err != nil {
		return nil, decodeFailed("BlockChange", err)
	}
	return BlockChange{Position: pos, BlockState: state}, nil
}

func decodeChatMessage(r *bytes.Reader) (ServerPacket, error) {
	js, err := ReadString(r)
	if err != nil {
		return nil, decodeFailed("ChatMessage", err)
	}
	if !json.Valid([]byte(js)) {
		return nil, &DecodeError{Reason: "ChatMessage: invalid JSON"}
	}
	pos, err := ReadByte(r)
	if err != nil {
		return nil, decodeFailed("ChatMessage", err)
	}
	return ChatMessage{JSON: js, Position: pos}, nil
}

func decodeMultiBlockChange(r *bytes.Reader) (ServerPacket, error) {
	var p MultiBlockChange
	var err error
	if p.ChunkX, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("MultiBlockChange", err)
	}
	if p.ChunkZ, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("MultiBlockChange", err)
	}
	count, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("MultiBlockChange", err)
	}
	p.Records = make([]BlockRecord, 0, count)
	for i := int32(0); i < count; i++ {
		local, err := ReadUint16(r)
		if err != nil {
			return nil, decodeFailed("MultiBlockChange", err)
		}
		state, err := ReadUint16(r)
		if err != nil {
			return nil, decodeFailed("MultiBlockChange", err)
		}
		p.Records = append(p.Records, BlockRecord{Local: local, BlockState: state})
	}
	return p, nil
}

func decodeUnloadChunk(r *bytes.Reader) (ServerPacket, error) {
	var p UnloadChunk
	var err error
	if p.ChunkX, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("UnloadChunk", err)
	}
	if p.ChunkZ, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("UnloadChunk", err)
	}
	return p, nil
}

func decodeChunkData(r *bytes.Reader) (ServerPacket, error) {
	var p ChunkData
	var err error
	if p.ChunkX, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("ChunkData", err)
	}
	if p.ChunkZ, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("ChunkData", err)
	}
	if p.FullChunk, err = ReadBool(r); err != nil {
		return nil, decodeFailed("ChunkData", err)
	}
	mask, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("ChunkData", err)
	}
	p.PrimaryBitmask = mask
	if p.Data, err = ReadByteArray(r); err != nil {
		return nil, decodeFailed("ChunkData", err)
	}
	// Trailing block entity NBT is not modeled.
	return p, nil
}

func decodeJoinGame(r *bytes.Reader) (ServerPacket, error) {
	var p JoinGame
	var err error
	if p.EntityID, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.GameMode, err = ReadByte(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.Dimension, err = ReadInt32(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.Difficulty, err = ReadByte(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.MaxPlayers, err = ReadByte(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.LevelType, err = ReadString(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	if p.ReducedDebugInfo, err = ReadBool(r); err != nil {
		return nil, decodeFailed("JoinGame", err)
	}
	return p, nil
}

func decodePlayerAbilities(r *bytes.Reader) (ServerPacket, error) {
	var p PlayerAbilities
	var err error
	if p.Flags, err = ReadByte(r); err != nil {
		return nil, decodeFailed("PlayerAbilities", err)
	}
	if p.FlyingSpeed, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("PlayerAbilities", err)
	}
	if p.FOV, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("PlayerAbilities", err)
	}
	return p, nil
}

func decodePlayerList(r *bytes.Reader) (ServerPacket, error) {
	action, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("PlayerList", err)
	}
	count, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("PlayerList", err)
	}
	p := PlayerList{Action: action}
	for i := int32(0); i < count; i++ {
		raw, err := ReadUUID(r)
		if err != nil {
			return nil, decodeFailed("PlayerList", err)
		}
		entry := PlayerListEntry{UUID: uuid.UUID(raw)}
		switch action {
		case PlayerListAdd:
			if entry.Name, err = ReadString(r); err != nil {
				return nil, decodeFailed("PlayerList", err)
			}
			if err = skipPlayerProperties(r); err != nil {
				return nil, decodeFailed("PlayerList", err)
			}
			if _, _, err = ReadVarInt(r); err != nil { // gamemode
				return nil, decodeFailed("PlayerList", err)
			}
			if _, _, err = ReadVarInt(r); err != nil { // ping
				return nil, decodeFailed("PlayerList", err)
			}
			if err = skipOptionalString(r); err != nil { // display name
				return nil, decodeFailed("PlayerList", err)
			}
		case 1: // update gamemode
			if _, _, err = ReadVarInt(r); err != nil {
				return nil, decodeFailed("PlayerList", err)
			}
		case 2: // update latency
			if _, _, err = ReadVarInt(r); err != nil {
				return nil, decodeFailed("PlayerList", err)
			}
		case 3: // update display name
			if err = skipOptionalString(r); err != nil {
				return nil, decodeFailed("PlayerList", err)
			}
		case PlayerListRemove:
			// uuid only
		default:
			return nil, &DecodeError{Reason: fmt.Sprintf("PlayerList action %d", action)}
		}
		p.Entries = append(p.Entries, entry)
	}
	return p, nil
}

func skipPlayerProperties(r *bytes.Reader) error {
	count, _, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		if _, err := ReadString(r); err != nil { // name
			return err
		}
		if _, err := ReadString(r); err != nil { // value
			return err
		}
		signed, err := ReadBool(r)
		if err != nil {
			return err
		}
		if signed {
			if _, err := ReadString(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipOptionalString(r *bytes.Reader) error {
	present, err := ReadBool(r)
	if err != nil {
		return err
	}
	if present {
		_, err = ReadString(r)
	}
	return err
}

func decodePlayerPositionAndLook(r *bytes.Reader) (ServerPacket, error) {
	var p PlayerPositionAndLook
	var err error
	if p.X, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	if p.Y, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	if p.Z, err = ReadFloat64(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	if p.Yaw, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	if p.Pitch, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	if p.Flags, err = ReadByte(r); err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	tid, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("PlayerPositionAndLook", err)
	}
	p.TeleportID = tid
	return p, nil
}

func decodeEntityVelocity(r *bytes.Reader) (ServerPacket, error) {
	var p EntityVelocity
	eid, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("EntityVelocity", err)
	}
	p.EntityID = eid
	if p.VelocityX, err = ReadInt16(r); err != nil {
		return nil, decodeFailed("EntityVelocity", err)
	}
	if p.VelocityY, err = ReadInt16(r); err != nil {
		return nil, decodeFailed("EntityVelocity", err)
	}
	if p.VelocityZ, err = ReadInt16(r); err != nil {
		return nil, decodeFailed("EntityVelocity", err)
	}
	return p, nil
}

func decodeUpdateHealth(r *bytes.Reader) (ServerPacket, error) {
	var p UpdateHealth
	var err error
	if p.Health, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("UpdateHealth", err)
	}
	food, _, err := ReadVarInt(r)
	if err != nil {
		return nil, decodeFailed("UpdateHealth", err)
	}
	p.Food = food
	if p.Saturation, err = ReadFloat32(r); err != nil {
		return nil, decodeFailed("UpdateHealth", err)
	}
	return p, nil
}

func decodeTimeUpdate(r *bytes.Reader) (ServerPacket, error) {
	var p TimeUpdate
	var err error
	if p.WorldAge, err = ReadInt64(r); err != nil {
		return nil, decodeFailed("TimeUpdate", err)
	}
	if p.TimeOfDay, err = ReadInt64(r); err != nil {
		return nil, decodeFailed("TimeUpdate", err)
	}
	return p, nil
}

func decodeFailed(name string, err error) error {
	if de, ok := err.(*DecodeError); ok {
		return &DecodeError{Reason: name + ": " + de.Reason}
	}
	return &DecodeError{Reason: fmt.Sprintf("%s: short frame: %v", name, err)}
}
