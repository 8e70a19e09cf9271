package world

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/StoreStation/minebot/pkg/blocks"
	"github.com/StoreStation/minebot/pkg/geom"
	"github.com/StoreStation/minebot/pkg/protocol"
)

// packWords packs indices LSB-first into big-endian 64-bit words,
// mirroring the wire layout the unpacker consumes.
func packWords(indices []uint16, bits uint) []byte {
	var words []uint64
	var cur uint64
	var curBits uint
	for _, idx := range indices {
		cur |= uint64(idx) << curBits
		curBits += bits
		if curBits >= 64 {
			words = append(words, cur)
			curBits -= 64
			cur = uint64(idx) >> (bits - curBits)
		}
	}
	if curBits > 0 {
		words = append(words, cur)
	}
	out := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(out[8*i:], w)
	}
	return out
}

// buildSection assembles one encoded section. A nil palette selects
// direct encoding.
func buildSection(t *testing.T, bits uint, palette []uint16, indices []uint16, lightByte, skylightByte byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(byte(bits))
	if bits <= 8 {
		protocol.WriteVarInt(&buf, int32(len(palette)))
		for _, p := range palette {
			protocol.WriteVarInt(&buf, int32(p))
		}
	}
	packed := packWords(indices, bits)
	protocol.WriteVarInt(&buf, int32(len(packed)/8))
	buf.Write(packed)
	for i := 0; i < SectionBlocks/2; i++ {
		buf.WriteByte(lightByte)
	}
	for i := 0; i < SectionBlocks/2; i++ {
		buf.WriteByte(skylightByte)
	}
	return buf.Bytes()
}

func TestDecodeChunkDataPaletted(t *testing.T) {
	for _, bits := range []uint{4, 5, 8} {
		palette := make([]uint16, 1<<bits)
		for i := range palette {
			palette[i] = uint16(i) << 4 // distinct block ids
		}
		indices := make([]uint16, SectionBlocks)
		for i := range indices {
			indices[i] = uint16(i) % uint16(len(palette))
		}

		data := buildSection(t, bits, palette, indices, 0xCB, 0xFF)
		c, err := DecodeChunkData(data, 0x0001)
		if err != nil {
			t.Fatalf("bits=%d: DecodeChunkData error: %v", bits, err)
		}

		for i, idx := range indices {
			want := blocks.BlockState(palette[idx])
			if got := c.State(geom.LocalAddr(i)); got != want {
				t.Fatalf("bits=%d: State(%d) = %#x, want %#x", bits, i, got, want)
			}
		}
	}
}

func TestDecodeChunkDataDirect(t *testing.T) {
	indices := make([]uint16, SectionBlocks)
	for i := range indices {
		indices[i] = uint16(i * 7 % 4096)
	}

	data := buildSection(t, 13, nil, indices, 0x00, 0xFF)
	c, err := DecodeChunkData(data, 0x0001)
	if err != nil {
		t.Fatalf("DecodeChunkData error: %v", err)
	}
	for i, want := range indices {
		if got := c.State(geom.LocalAddr(i)); got != blocks.BlockState(want) {
			t.Fatalf("State(%d) = %#x, want %#x", i, got, want)
		}
	}
}

func TestDecodeChunkDataUpperSection(t *testing.T) {
	palette := []uint16{0, 1 << 4}
	indices := make([]uint16, SectionBlocks)
	indices[0] = 1

	// Only section 4 present: the block lands at y = 64.
	data := buildSection(t, 4, palette, indices, 0x00, 0xFF)
	c, err := DecodeChunkData(data, 1<<4)
	if err != nil {
		t.Fatalf("DecodeChunkData error: %v", err)
	}
	if got := c.State(geom.NewLocalAddr(0, 64, 0)); got.ID() != 1 {
		t.Errorf("State(0, 64, 0) = %#x, want id 1", got)
	}
	if got := c.State(geom.NewLocalAddr(0, 0, 0)); got != 0 {
		t.Errorf("State(0, 0, 0) = %#x, want 0", got)
	}
}

func TestDecodeChunkDataLightNibbles(t *testing.T) {
	palette := []uint16{0, 1 << 4}
	indices := make([]uint16, SectionBlocks)

	// 0xCB: low nibble 0xB at even addresses, high nibble 0xC at odd.
	data := buildSection(t, 4, palette, indices, 0xCB, 0x5A)
	c, err := DecodeChunkData(data, 0x0001)
	if err != nil {
		t.Fatalf("DecodeChunkData error: %v", err)
	}
	if got := c.Light(0); got != 0xB {
		t.Errorf("Light(0) = %d, want 11", got)
	}
	if got := c.Light(1); got != 0xC {
		t.Errorf("Light(1) = %d, want 12", got)
	}
	if got := c.Skylight(0); got != 0xA {
		t.Errorf("Skylight(0) = %d, want 10", got)
	}
	if got := c.Skylight(1); got != 0x5 {
		t.Errorf("Skylight(1) = %d, want 5", got)
	}
}

func TestChunkDefaults(t *testing.T) {
	c := &Chunk{}
	addr := geom.NewLocalAddr(5, 200, 5)
	if got := c.State(addr); got != 0 {
		t.Errorf("State default = %#x, want 0", got)
	}
	if got := c.Damage(addr); got != 0 {
		t.Errorf("Damage default = %d, want 0", got)
	}
	if got := c.Light(addr); got != 0 {
		t.Errorf("Light default = %d, want 0", got)
	}
	if got := c.Skylight(addr); got != 15 {
		t.Errorf("Skylight default = %d, want 15", got)
	}
}

func TestChunkGrowth(t *testing.T) {
	c := &Chunk{}
	high := geom.NewLocalAddr(15, 250, 15)
	c.SetState(high, blocks.BlockState(7<<4))
	if got := c.State(high); got.ID() != 7 {
		t.Errorf("State after grow = %#x", got)
	}
	// Everything below the grown address still reads the default.
	if got := c.State(geom.NewLocalAddr(0, 10, 0)); got != 0 {
		t.Errorf("State(0, 10, 0) = %#x, want 0", got)
	}
}

func TestDecodeChunkDataBadPaletteIndex(t *testing.T) {
	palette := []uint16{0} // single entry, but indices reference 1
	indices := make([]uint16, SectionBlocks)
	indices[10] = 1

	data := buildSection(t, 4, palette, indices, 0, 0xFF)
	if _, err := DecodeChunkData(data, 0x0001); err == nil {
		t.Fatal("expected error for out-of-range palette index")
	}
}
