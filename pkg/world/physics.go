package world

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/StoreStation/minebot/pkg/geom"
)

// Body and integration constants. The player body is an AABB 0.6
// wide and 1.8 tall with its reference point at the bottom centre.
const (
	bodyHalfWidth = 0.3
	bodyHeight    = 1.8
	gravity       = 0.08
	airDrag       = 0.98
	walkAccel     = 0.1
	accelFactor   = 0.1627714
)

// StepPhysics integrates the self entity through one tick: walking
// acceleration, velocity advance, voxel collision, gravity and drag.
// It reports whether the position changed, which drives outbound
// replication.
func (m *Mirror) StepPhysics() bool {
	e, ok := m.Self()
	if !ok {
		return false
	}

	// The support block sets ground friction: the current voxel when
	// mid-block vertically, otherwise the block below the feet.
	support := e.Position.Block()
	if e.Position.Y == math.Floor(e.Position.Y) {
		support = support.Offset(0, -1, 0)
	}
	state, ok := m.store.StateAt(support)
	if !ok {
		log.Debug("Support block not loaded, skipping physics tick")
		return false
	}
	slipperiness := state.Slipperiness()
	friction := slipperiness * 0.91

	if m.moving {
		accel := walkAccel * (accelFactor / (friction * friction * friction))
		yaw := e.Yaw * math.Pi / 180
		e.Velocity.X += -math.Sin(yaw) * accel
		e.Velocity.Z += math.Cos(yaw) * accel
	}

	before := e.Position
	e.Position.X += e.Velocity.X
	e.Position.Y += e.Velocity.Y
	e.Position.Z += e.Velocity.Z

	m.collide(e)

	if !e.OnGround {
		e.Velocity.Y -= gravity
	}

	e.Velocity.X *= airDrag * slipperiness
	e.Velocity.Y *= airDrag
	e.Velocity.Z *= airDrag * slipperiness

	return e.Position != before
}

// solidAt reports whether the voxel blocks the body. An unloaded
// voxel counts as passable so the body never wedges against a chunk
// border.
func (m *Mirror) solidAt(p geom.BlockPos) bool {
	state, ok := m.store.StateAt(p)
	return ok && !state.Passable()
}

// collide resolves the advanced position against the surrounding
// blocks one axis at a time, snapping to the penetrated face and
// zeroing that velocity component.
func (m *Mirror) collide(e *Entity) {
	pos := &e.Position
	vel := &e.Velocity
	e.OnGround = false

	// Vertical.
	if vel.Y < 0 {
		feet := int32(math.Floor(pos.Y))
		if pos.Y != math.Floor(pos.Y) && m.anySolidLayer(pos, feet) {
			pos.Y = float64(feet) + 1
			vel.Y = 0
			e.OnGround = true
		}
	} else if vel.Y > 0 {
		head := pos.Y + bodyHeight
		top := int32(math.Floor(head))
		if head != math.Floor(head) && m.anySolidLayer(pos, top) {
			pos.Y = float64(top) - bodyHeight
			vel.Y = 0
		}
	}

	// Horizontal, probing the face on the moving side.
	if vel.X > 0 {
		px := int32(math.Floor(pos.X + bodyHalfWidth))
		if m.anySolidColumn(pos, px) {
			pos.X = float64(px) - bodyHalfWidth
			vel.X = 0
		}
	} else if vel.X < 0 {
		px := int32(math.Floor(pos.X - bodyHalfWidth))
		if m.anySolidColumn(pos, px) {
			pos.X = float64(px+1) + bodyHalfWidth
			vel.X = 0
		}
	}
	if vel.Z > 0 {
		pz := int32(math.Floor(pos.Z + bodyHalfWidth))
		if m.anySolidRow(pos, pz) {
			pos.Z = float64(pz) - bodyHalfWidth
			vel.Z = 0
		}
	} else if vel.Z < 0 {
		pz := int32(math.Floor(pos.Z - bodyHalfWidth))
		if m.anySolidRow(pos, pz) {
			pos.Z = float64(pz+1) + bodyHalfWidth
			vel.Z = 0
		}
	}

	// Resting exactly on a block face also counts as grounded.
	if pos.Y == math.Floor(pos.Y) && m.anySolidLayer(pos, int32(pos.Y)-1) {
		e.OnGround = true
	}
}

// anySolidLayer scans the horizontal footprint at block height y.
func (m *Mirror) anySolidLayer(pos *geom.Position, y int32) bool {
	x0, x1 := xRange(pos)
	z0, z1 := zRange(pos)
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			if m.solidAt(geom.BlockPos{X: x, Y: y, Z: z}) {
				return true
			}
		}
	}
	return false
}

// anySolidColumn scans the body's vertical span at block column x,
// across the z rows the body overlaps.
func (m *Mirror) anySolidColumn(pos *geom.Position, x int32) bool {
	y0, y1 := yRange(pos)
	z0, z1 := zRange(pos)
	for y := y0; y <= y1; y++ {
		for z := z0; z <= z1; z++ {
			if m.solidAt(geom.BlockPos{X: x, Y: y, Z: z}) {
				return true
			}
		}
	}
	return false
}

// anySolidRow scans the body's vertical span at block row z, across
// the x columns the body overlaps.
func (m *Mirror) anySolidRow(pos *geom.Position, z int32) bool {
	y0, y1 := yRange(pos)
	x0, x1 := xRange(pos)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if m.solidAt(geom.BlockPos{X: x, Y: y, Z: z}) {
				return true
			}
		}
	}
	return false
}

func xRange(pos *geom.Position) (int32, int32) {
	return int32(math.Floor(pos.X - bodyHalfWidth)),
		int32(math.Floor(pos.X + bodyHalfWidth))
}

func zRange(pos *geom.Position) (int32, int32) {
	return int32(math.Floor(pos.Z - bodyHalfWidth)),
		int32(math.Floor(pos.Z + bodyHalfWidth))
}

// yRange spans the block layers the body occupies. The top face is
// exclusive: a body whose head sits exactly on a block boundary does
// not occupy the block above.
func yRange(pos *geom.Position) (int32, int32) {
	bottom := int32(math.Floor(pos.Y))
	head := pos.Y + bodyHeight
	top := int32(math.Floor(head))
	if head == math.Floor(head) {
		top--
	}
	return bottom, top
}
