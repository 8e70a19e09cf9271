package bot

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/StoreStation/minebot/pkg/blocks"
	"github.com/StoreStation/minebot/pkg/events"
	"github.com/StoreStation/minebot/pkg/geom"
	"github.com/StoreStation/minebot/pkg/protocol"
	"github.com/StoreStation/minebot/pkg/world"
)

// connectTimeout bounds every blocking receive during the login
// warm-up; a silent server is a dead connection.
const connectTimeout = 30 * time.Second

// Client is a headless game client on one TCP connection. It owns
// the socket, the codec buffers, the world mirror and the tick
// clock; all methods are synchronous and must be called from a
// single goroutine.
type Client struct {
	conn   net.Conn
	codec  *protocol.Codec
	mirror *world.Mirror
	clock  *world.Clock
}

// Connect dials the server, performs the offline-mode login and
// warm-up, and returns a ready client.
func Connect(host string, port uint16, username string) (*Client, error) {
	log.Infof("Connecting to %s:%d...", host, port)
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	c := &Client{
		conn:  conn,
		codec: protocol.NewCodec(),
	}
	if err := c.login(host, port, username); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) login(host string, port uint16, username string) error {
	if err := c.send(protocol.C2SHandshake{
		Version: protocol.ProtocolVersion,
		Host:    host,
		Port:    port,
		Next:    protocol.StateLogin,
	}); err != nil {
		return err
	}
	if err := c.send(protocol.C2SLoginStart{Name: username}); err != nil {
		return err
	}

	raw, err := protocol.ReadPacket(c.conn)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	pkt, err := protocol.DecodeLogin(raw)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	success := pkt.(protocol.LoginSuccess)
	log.Infof("Successfully connected, player id is %s", success.UUID)

	c.mirror = world.NewMirror(success.UUID, success.Username)
	c.clock = world.NewClock()

	if err := c.pollUntil(func(p protocol.ServerPacket) bool {
		_, ok := p.(protocol.PlayerAbilities)
		return ok
	}); err != nil {
		return err
	}

	if err := c.send(protocol.C2SClientSettings{
		Locale:        "en-US",
		ViewDistance:  4,
		ChatMode:      0,
		ChatColors:    false,
		DisplayedSkin: 0xFF,
		MainHand:      0,
	}); err != nil {
		return err
	}

	if err := c.pollUntil(func(p protocol.ServerPacket) bool {
		_, ok := p.(protocol.KeepAlive)
		return ok
	}); err != nil {
		return err
	}
	c.mirror.SetInitialized()
	return nil
}

// Close drops the connection. The client is unusable afterwards.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) send(p protocol.ClientPacket) error {
	return protocol.WritePacket(c.conn, p.Marshal())
}

// receiveBlocking waits for the next packet, bounded by the connect
// timeout.
func (c *Client) receiveBlocking() (protocol.ServerPacket, error) {
	raw, err := c.codec.ReadPacketDeadline(c.conn, time.Now().Add(connectTimeout))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("no packet within %v", connectTimeout)
	}
	return protocol.DecodePlay(raw)
}

// pollUntil handles packets until one satisfies the predicate.
func (c *Client) pollUntil(pred func(protocol.ServerPacket) bool) error {
	for {
		pkt, err := c.receiveBlocking()
		if err != nil {
			return err
		}
		match := pred(pkt)
		if err := c.handle(pkt); err != nil {
			return err
		}
		if match {
			return nil
		}
	}
}

// receive advances the clock and reads until the current tick ends.
// A nil packet with nil error means the tick boundary arrived first.
func (c *Client) receive() (protocol.ServerPacket, error) {
	if c.clock.Advance() {
		return nil, nil
	}
	raw, err := c.codec.ReadPacketDeadline(c.conn, c.clock.CurrentTickEnd())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		c.clock.Advance()
		return nil, nil
	}
	return protocol.DecodePlay(raw)
}

// handle lets the mirror and clock observe the packet, then runs the
// protocol reflexes: keep-alive echo, teleport confirmation and
// auto-respawn.
func (c *Client) handle(pkt protocol.ServerPacket) error {
	c.clock.HandlePacket(pkt)
	c.mirror.Handle(pkt)

	switch p := pkt.(type) {
	case protocol.KeepAlive:
		return c.send(protocol.C2SKeepAlive{ID: p.ID})

	case protocol.PlayerPositionAndLook:
		if p.TeleportID != 0 {
			if err := c.send(protocol.C2STeleportConfirm{TeleportID: p.TeleportID}); err != nil {
				return err
			}
			return c.sendPosition()
		}

	case protocol.UpdateHealth:
		if p.Health == 0 {
			log.Info("Died; requesting respawn")
			return c.send(protocol.C2SClientStatus{Action: protocol.ClientStatusRespawn})
		}
	}
	return nil
}

// sendPosition replicates the current self state to the server.
func (c *Client) sendPosition() error {
	self, ok := c.mirror.Self()
	if !ok {
		return nil
	}
	return c.send(protocol.C2SPlayerPositionAndLook{
		X:        self.Position.X,
		Y:        self.Position.Y,
		Z:        self.Position.Z,
		Yaw:      float32(self.Yaw),
		Pitch:    float32(c.mirror.Pitch()),
		OnGround: self.OnGround,
	})
}

// tickStep runs one physics tick and replicates the result.
func (c *Client) tickStep() error {
	if !c.mirror.Initialized() {
		return nil
	}
	if c.mirror.StepPhysics() {
		return c.sendPosition()
	}
	return nil
}

// PollUntilEvent blocks until the matcher set produces an event.
// Matchers see each packet before the mirror applies it, so
// edge-triggered patterns observe the previous state.
func (c *Client) PollUntilEvent(ms events.Matchers) (events.Event, error) {
	for {
		pkt, err := c.receive()
		if err != nil {
			return nil, err
		}
		if pkt != nil {
			ev := ms.MatchPacket(pkt, c.mirror)
			if err := c.handle(pkt); err != nil {
				return nil, err
			}
			if ev != nil {
				return ev, nil
			}
			continue
		}
		if err := c.tickStep(); err != nil {
			return nil, err
		}
		if ev := ms.MatchTick(c.clock.CurrentTick()); ev != nil {
			return ev, nil
		}
	}
}

// ListenFor blocks until the first event matching the set.
func (c *Client) ListenFor(ms events.Matchers) (events.Event, error) {
	return c.PollUntilEvent(ms)
}

// Say sends a chat line.
func (c *Client) Say(message string) error {
	return c.send(protocol.C2SChat{Message: message})
}

// TeleportTo moves the self entity and replicates the new position.
func (c *Client) TeleportTo(pos geom.Position) error {
	self, ok := c.mirror.Self()
	if !ok {
		return fmt.Errorf("teleport: self entity not spawned yet")
	}
	self.Position = pos
	return c.sendPosition()
}

// SetYaw points the self entity at the heading in degrees.
func (c *Client) SetYaw(angle float64) {
	c.mirror.SetYaw(angle)
}

// SetMoving starts or stops walking in the current yaw direction.
func (c *Client) SetMoving(flag bool) {
	c.mirror.SetMoving(flag)
}

// Health returns the mirrored health in hearts (0..10).
func (c *Client) Health() float32 { return c.mirror.Health() }

// Food returns the mirrored food level (0..10).
func (c *Client) Food() float32 { return c.mirror.Food() }

// MyPosition returns the self position, zero before JoinGame.
func (c *Client) MyPosition() geom.Position {
	if self, ok := c.mirror.Self(); ok {
		return self.Position
	}
	return geom.Position{}
}

// PlayerNames lists the usernames on the roster.
func (c *Client) PlayerNames() []string { return c.mirror.PlayerNames() }

// CurrentTick returns the server-synchronised tick index.
func (c *Client) CurrentTick() int64 { return c.clock.CurrentTick() }

// BlockStateAt queries the mirrored terrain; ok is false when the
// chunk is not loaded.
func (c *Client) BlockStateAt(p geom.BlockPos) (blocks.BlockState, bool) {
	return c.mirror.Store().StateAt(p)
}

// FindBlockIDsWithin lists blocks with the given id inside an
// inclusive cube around center, nearest first.
func (c *Client) FindBlockIDsWithin(id uint16, center geom.BlockPos, radius int32) []geom.BlockPos {
	return c.mirror.Store().FindBlockIDs(id, center, radius)
}

// FindPathTo searches a walkable route between two blocks.
func (c *Client) FindPathTo(start, end geom.BlockPos) ([]geom.BlockPos, bool) {
	return c.mirror.FindPath(start, end)
}
