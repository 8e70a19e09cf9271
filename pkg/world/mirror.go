package world

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/StoreStation/minebot/pkg/blocks"
	"github.com/StoreStation/minebot/pkg/geom"
	"github.com/StoreStation/minebot/pkg/protocol"
)

// Entity is a tracked game entity. Non-self entities only ever see
// position and velocity updates; the self entity is also integrated
// by the physics step.
type Entity struct {
	Position geom.Position
	Velocity geom.Vec3
	Yaw      float64
	OnGround bool
}

// Player is a roster entry from the player list. The entity id binds
// once the matching SpawnPlayer (or JoinGame, for the self player)
// arrives.
type Player struct {
	Name      string
	EntityID  int32
	HasEntity bool
}

// Mirror is the client's live copy of the server world: chunks,
// players, entities and the self state. It is single-owner; the
// client loop mutates it between socket reads.
type Mirror struct {
	store    *Store
	players  map[uuid.UUID]*Player
	entities map[int32]*Entity

	selfID       uuid.UUID
	username     string
	selfEntityID int32
	hasSelf      bool
	pitch        float64

	health float32
	food   float32

	moving      bool
	initialized bool
}

// NewMirror creates a mirror for the logged-in player. The self
// player is on the roster immediately; its entity id arrives with
// JoinGame.
func NewMirror(selfID uuid.UUID, username string) *Mirror {
	m := &Mirror{
		store:    NewStore(),
		players:  make(map[uuid.UUID]*Player),
		entities: make(map[int32]*Entity),
		selfID:   selfID,
		username: username,
		health:   10,
		food:     10,
	}
	m.players[selfID] = &Player{Name: username}
	return m
}

// Store exposes the chunk store for queries.
func (m *Mirror) Store() *Store { return m.store }

// Username returns the self player's name.
func (m *Mirror) Username() string { return m.username }

// Health returns the current health in hearts (0..10).
func (m *Mirror) Health() float32 { return m.health }

// Food returns the current food level (0..10).
func (m *Mirror) Food() float32 { return m.food }

// Moving reports whether the self entity is walking forward.
func (m *Mirror) Moving() bool { return m.moving }

// SetMoving toggles forward motion for the physics step.
func (m *Mirror) SetMoving(flag bool) { m.moving = flag }

// Initialized reports whether the login warm-up has completed.
func (m *Mirror) Initialized() bool { return m.initialized }

// SetInitialized marks the login warm-up complete; the tick step
// starts integrating physics from here on.
func (m *Mirror) SetInitialized() { m.initialized = true }

// Self returns the self entity once JoinGame has created it.
func (m *Mirror) Self() (*Entity, bool) {
	if !m.hasSelf {
		return nil, false
	}
	e, ok := m.entities[m.selfEntityID]
	return e, ok
}

// Pitch returns the self pitch in degrees, kept for wire
// replication.
func (m *Mirror) Pitch() float64 { return m.pitch }

// SetYaw points the self entity at the given heading in degrees.
func (m *Mirror) SetYaw(angle float64) {
	if e, ok := m.Self(); ok {
		e.Yaw = angle
	}
}

// PlayerNames returns the usernames currently on the roster.
func (m *Mirror) PlayerNames() []string {
	names := make([]string, 0, len(m.players))
	for _, p := range m.players {
		names = append(names, p.Name)
	}
	return names
}

// PlayerName resolves a roster uuid to a username.
func (m *Mirror) PlayerName(id uuid.UUID) (string, bool) {
	p, ok := m.players[id]
	if !ok {
		return "", false
	}
	return p.Name, true
}

// Handle applies a decoded packet's effect to the mirror. Packets
// the mirror does not model are ignored.
func (m *Mirror) Handle(pkt protocol.ServerPacket) {
	switch p := pkt.(type) {
	case protocol.JoinGame:
		m.selfEntityID = p.EntityID
		m.hasSelf = true
		m.entities[p.EntityID] = &Entity{}
		if self, ok := m.players[m.selfID]; ok {
			self.EntityID = p.EntityID
			self.HasEntity = true
		}

	case protocol.SpawnPlayer:
		m.entities[p.EntityID] = &Entity{
			Position: geom.Position{X: p.X, Y: p.Y, Z: p.Z},
			Yaw:      p.Yaw,
		}
		if player, ok := m.players[p.UUID]; ok {
			player.EntityID = p.EntityID
			player.HasEntity = true
		} else {
			log.Warnf("SpawnPlayer for unlisted player %s", p.UUID)
		}

	case protocol.BlockChange:
		x, y, z := protocol.UnpackPosition(p.Position)
		m.store.SetStateAt(geom.BlockPos{X: x, Y: y, Z: z}, blocks.BlockState(p.BlockState))

	case protocol.MultiBlockChange:
		addr := geom.ChunkAddr{X: p.ChunkX, Z: p.ChunkZ}
		for _, rec := range p.Records {
			m.store.SetStateLocal(addr, geom.LocalAddr(rec.Local), blocks.BlockState(rec.BlockState))
		}

	case protocol.ChunkData:
		if !p.FullChunk {
			// Partial updates never create or patch columns here.
			return
		}
		c, err := DecodeChunkData(p.Data, p.PrimaryBitmask)
		if err != nil {
			log.Warnf("Discarding chunk (%d, %d): %v", p.ChunkX, p.ChunkZ, err)
			return
		}
		m.store.Insert(geom.ChunkAddr{X: p.ChunkX, Z: p.ChunkZ}, c)

	case protocol.UnloadChunk:
		m.store.Remove(geom.ChunkAddr{X: p.ChunkX, Z: p.ChunkZ})

	case protocol.PlayerList:
		m.handlePlayerList(p)

	case protocol.PlayerPositionAndLook:
		m.handlePositionAndLook(p)

	case protocol.EntityVelocity:
		e, ok := m.entities[p.EntityID]
		if !ok {
			log.Warnf("Velocity for unknown entity %d", p.EntityID)
			return
		}
		e.Velocity = geom.Vec3{
			X: float64(p.VelocityX),
			Y: float64(p.VelocityY),
			Z: float64(p.VelocityZ),
		}

	case protocol.UpdateHealth:
		m.health = p.Health / 2
		m.food = float32(p.Food) / 2
	}
}

func (m *Mirror) handlePlayerList(p protocol.PlayerList) {
	switch p.Action {
	case protocol.PlayerListAdd:
		for _, e := range p.Entries {
			m.players[e.UUID] = &Player{Name: e.Name}
		}
	case protocol.PlayerListRemove:
		for _, e := range p.Entries {
			delete(m.players, e.UUID)
		}
	}
}

// handlePositionAndLook applies the server teleport. Each flag bit
// switches its field from absolute to delta: bit 0/1/2 for x/y/z,
// bit 3 for yaw, bit 4 for pitch.
func (m *Mirror) handlePositionAndLook(p protocol.PlayerPositionAndLook) {
	e, ok := m.Self()
	if !ok {
		log.Warn("Position update before JoinGame")
		return
	}
	apply := func(cur, val float64, relative bool) float64 {
		if relative {
			return cur + val
		}
		return val
	}
	e.Position.X = apply(e.Position.X, p.X, p.Flags&0x01 != 0)
	e.Position.Y = apply(e.Position.Y, p.Y, p.Flags&0x02 != 0)
	e.Position.Z = apply(e.Position.Z, p.Z, p.Flags&0x04 != 0)
	e.Yaw = apply(e.Yaw, float64(p.Yaw), p.Flags&0x08 != 0)
	m.pitch = apply(m.pitch, float64(p.Pitch), p.Flags&0x10 != 0)
}
