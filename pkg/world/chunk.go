package world

import (
	"bytes"
	"fmt"

	"github.com/StoreStation/minebot/pkg/blocks"
	"github.com/StoreStation/minebot/pkg/geom"
	"github.com/StoreStation/minebot/pkg/protocol"
)

const (
	// SectionBlocks is the number of blocks in one 16x16x16 section.
	SectionBlocks = 4096
	// SectionsPerChunk stacks sections up to the 256-block build height.
	SectionsPerChunk = 16
)

// Chunk is one 16x16x256 column. Four parallel arrays are indexed by
// the packed local address and grown on demand; reads past the end
// return the per-array default (state 0, damage 0, light 0,
// skylight 15).
type Chunk struct {
	states   []uint16
	damage   []uint8
	light    []uint8
	skylight []uint8
}

// State returns the stored block state at a local address.
func (c *Chunk) State(l geom.LocalAddr) blocks.BlockState {
	if int(l) >= len(c.states) {
		return 0
	}
	return blocks.BlockState(c.states[l])
}

// SetState stores a block state, growing the column if needed.
func (c *Chunk) SetState(l geom.LocalAddr, s blocks.BlockState) {
	if int(l) >= len(c.states) {
		c.states = append(c.states, make([]uint16, int(l)+1-len(c.states))...)
	}
	c.states[l] = uint16(s)
}

// Damage returns the block damage at a local address.
func (c *Chunk) Damage(l geom.LocalAddr) uint8 {
	if int(l) >= len(c.damage) {
		return 0
	}
	return c.damage[l]
}

// SetDamage stores block damage, growing the column if needed.
func (c *Chunk) SetDamage(l geom.LocalAddr, d uint8) {
	if int(l) >= len(c.damage) {
		c.damage = append(c.damage, make([]uint8, int(l)+1-len(c.damage))...)
	}
	c.damage[l] = d
}

// Light returns the block light level at a local address.
func (c *Chunk) Light(l geom.LocalAddr) uint8 {
	if int(l) >= len(c.light) {
		return 0
	}
	return c.light[l]
}

// Skylight returns the skylight level at a local address. Columns
// short of the address default to full daylight.
func (c *Chunk) Skylight(l geom.LocalAddr) uint8 {
	if int(l) >= len(c.skylight) {
		return 15
	}
	return c.skylight[l]
}

// DecodeChunkData unpacks a full-chunk payload: up to 16 stacked
// sections selected by the primary bitmask, each palette-compressed
// and bit-packed. Trailing biome bytes are ignored.
func DecodeChunkData(data []byte, primaryBitmask int32) (*Chunk, error) {
	c := &Chunk{}
	r := bytes.NewReader(data)
	for section := 0; section < SectionsPerChunk; section++ {
		if primaryBitmask&(1<<section) == 0 {
			continue
		}
		if err := decodeSection(r, c, section); err != nil {
			return nil, fmt.Errorf("section %d: %w", section, err)
		}
	}
	return c, nil
}

func decodeSection(r *bytes.Reader, c *Chunk, section int) error {
	bitsPerBlock, err := protocol.ReadByte(r)
	if err != nil {
		return err
	}
	if bitsPerBlock == 0 || bitsPerBlock > 16 {
		return fmt.Errorf("unsupported bits per block %d", bitsPerBlock)
	}

	// Sections at 8 bits or fewer carry a palette; wider sections
	// encode global state ids directly.
	var palette []uint16
	if bitsPerBlock <= 8 {
		count, _, err := protocol.ReadVarInt(r)
		if err != nil {
			return err
		}
		palette = make([]uint16, count)
		for i := range palette {
			entry, _, err := protocol.ReadVarInt(r)
			if err != nil {
				return err
			}
			palette[i] = uint16(entry)
		}
	}

	// On-wire data length in longs; redundant once framed.
	if _, _, err := protocol.ReadVarInt(r); err != nil {
		return err
	}

	base := geom.LocalAddr(section * SectionBlocks)
	up := newBitUnpacker(r, uint(bitsPerBlock))
	for i := 0; i < SectionBlocks; i++ {
		idx, err := up.next()
		if err != nil {
			return err
		}
		state := idx
		if palette != nil {
			if int(idx) >= len(palette) {
				return fmt.Errorf("palette index %d out of range", idx)
			}
			state = palette[idx]
		}
		if state != 0 {
			c.SetState(base+geom.LocalAddr(i), blocks.BlockState(state))
		}
	}

	if err := decodeNibbles(r, c, base, (*Chunk).setLight); err != nil {
		return err
	}
	return decodeNibbles(r, c, base, (*Chunk).setSkylight)
}

func (c *Chunk) setLight(l geom.LocalAddr, v uint8) {
	if int(l) >= len(c.light) {
		c.light = append(c.light, make([]uint8, int(l)+1-len(c.light))...)
	}
	c.light[l] = v
}

func (c *Chunk) setSkylight(l geom.LocalAddr, v uint8) {
	if int(l) >= len(c.skylight) {
		grown := make([]uint8, int(l)+1)
		copy(grown, c.skylight)
		for i := len(c.skylight); i < len(grown); i++ {
			grown[i] = 15
		}
		c.skylight = grown
	}
	c.skylight[l] = v
}

// decodeNibbles reads 2048 half-byte values, low nibble first.
func decodeNibbles(r *bytes.Reader, c *Chunk, base geom.LocalAddr, set func(*Chunk, geom.LocalAddr, uint8)) error {
	for i := 0; i < SectionBlocks/2; i++ {
		b, err := protocol.ReadByte(r)
		if err != nil {
			return err
		}
		set(c, base+geom.LocalAddr(2*i), b&0x0F)
		set(c, base+geom.LocalAddr(2*i+1), b>>4)
	}
	return nil
}

// bitUnpacker extracts fixed-width indices packed LSB-first into a
// stream of big-endian 64-bit words. A two-word shift buffer covers
// indices straddling word boundaries.
type bitUnpacker struct {
	r    *bytes.Reader
	bits uint

	cur     uint64
	curBits uint
}

func newBitUnpacker(r *bytes.Reader, bits uint) *bitUnpacker {
	return &bitUnpacker{r: r, bits: bits}
}

func (u *bitUnpacker) next() (uint16, error) {
	mask := uint64(1)<<u.bits - 1
	if u.curBits >= u.bits {
		idx := uint16(u.cur & mask)
		u.cur >>= u.bits
		u.curBits -= u.bits
		return idx, nil
	}

	word, err := protocol.ReadUint64(u.r)
	if err != nil {
		return 0, err
	}
	lo := u.cur | word<<u.curBits
	var hi uint64
	if u.curBits > 0 {
		hi = word >> (64 - u.curBits)
	}
	idx := uint16(lo & mask)
	u.cur = lo>>u.bits | hi<<(64-u.bits)
	u.curBits += 64 - u.bits
	return idx, nil
}
