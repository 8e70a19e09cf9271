package world

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/StoreStation/minebot/pkg/blocks"
	"github.com/StoreStation/minebot/pkg/geom"
)

// Store is the sparse chunk-column map. A missing chunk is
// "unknown", which is distinct from air: point queries report the
// miss and point updates are dropped.
type Store struct {
	chunks map[geom.ChunkAddr]*Chunk
}

// NewStore creates an empty chunk store.
func NewStore() *Store {
	return &Store{chunks: make(map[geom.ChunkAddr]*Chunk)}
}

// Insert adds or replaces the chunk at addr.
func (s *Store) Insert(addr geom.ChunkAddr, c *Chunk) {
	s.chunks[addr] = c
}

// Remove drops the chunk at addr.
func (s *Store) Remove(addr geom.ChunkAddr) {
	delete(s.chunks, addr)
}

// Chunk returns the chunk at addr, if loaded.
func (s *Store) Chunk(addr geom.ChunkAddr) (*Chunk, bool) {
	c, ok := s.chunks[addr]
	return c, ok
}

// Loaded reports whether the chunk containing p is loaded.
func (s *Store) Loaded(p geom.BlockPos) bool {
	_, ok := s.chunks[p.Chunk()]
	return ok
}

// StateAt returns the block state at p, or ok=false when the
// containing chunk is not loaded.
func (s *Store) StateAt(p geom.BlockPos) (blocks.BlockState, bool) {
	c, ok := s.chunks[p.Chunk()]
	if !ok {
		return 0, false
	}
	return c.State(p.Local()), true
}

// SetStateAt stores a block state. Updates for unloaded chunks are
// dropped: a partial chunk must never be created from a point write.
func (s *Store) SetStateAt(p geom.BlockPos, state blocks.BlockState) {
	c, ok := s.chunks[p.Chunk()]
	if !ok {
		log.Warnf("Dropping block update at (%d, %d, %d): chunk not loaded", p.X, p.Y, p.Z)
		return
	}
	c.SetState(p.Local(), state)
}

// SetStateLocal stores a block state by chunk address and packed
// local address, as MultiBlockChange delivers them.
func (s *Store) SetStateLocal(addr geom.ChunkAddr, l geom.LocalAddr, state blocks.BlockState) {
	c, ok := s.chunks[addr]
	if !ok {
		log.Warnf("Dropping block update in chunk (%d, %d): chunk not loaded", addr.X, addr.Z)
		return
	}
	c.SetState(l, state)
}

// FindBlockIDs returns the positions of every loaded block with the
// given id inside an inclusive cube of the given radius around
// center, ordered by squared distance from the center.
func (s *Store) FindBlockIDs(id uint16, center geom.BlockPos, radius int32) []geom.BlockPos {
	var found []geom.BlockPos
	min := center.Offset(-radius, -radius, -radius)
	max := center.Offset(radius, radius, radius)
	minChunk := min.Chunk()
	maxChunk := max.Chunk()

	for cx := minChunk.X; cx <= maxChunk.X; cx++ {
		for cz := minChunk.Z; cz <= maxChunk.Z; cz++ {
			addr := geom.ChunkAddr{X: cx, Z: cz}
			c, ok := s.chunks[addr]
			if !ok {
				continue
			}
			for i, state := range c.states {
				if blocks.BlockState(state).ID() != id {
					continue
				}
				p := geom.Global(addr, geom.LocalAddr(i))
				if p.X < min.X || p.X > max.X ||
					p.Y < min.Y || p.Y > max.Y ||
					p.Z < min.Z || p.Z > max.Z {
					continue
				}
				found = append(found, p)
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].DistSq(center) < found[j].DistSq(center)
	})
	return found
}
