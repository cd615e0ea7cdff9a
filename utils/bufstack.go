package utils

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BufStack is a bounded little-endian read cursor. Sub buffers keep a link
// to their parent so errors can report the whole offset chain.
type BufStack struct {
	parent         *BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	pos            int
	kind           string
	name           string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		kind: kind,
	}
}

// SubBuf scopes the next size bytes into a child cursor and advances past them.
func (bs *BufStack) SubBuf(kind string, size int) (*BufStack, error) {
	if size < 0 || size > bs.Remaining() {
		return nil, bs.errorf("sub buffer %q of 0x%x bytes overruns 0x%x remaining", kind, size, bs.Remaining())
	}
	child := &BufStack{
		parent:         bs,
		relativeOffset: bs.pos,
		absoluteOffset: bs.absoluteOffset + bs.pos,
		kind:           kind,
		buf:            bs.buf[bs.pos : bs.pos+size],
	}
	bs.pos += size
	return child, nil
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) Parent() *BufStack {
	return bs.parent
}

func (bs *BufStack) Size() int {
	return len(bs.buf)
}

func (bs *BufStack) Pos() int {
	return bs.pos
}

func (bs *BufStack) Remaining() int {
	return len(bs.buf) - bs.pos
}

func (bs *BufStack) Empty() bool {
	return bs.pos >= len(bs.buf)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,p:0x%x,ao:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, len(bs.buf), bs.pos, bs.absoluteOffset)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.StringChain())
	}
	return s
}

func (bs *BufStack) errorf(format string, a ...interface{}) error {
	return NewError(KindStructural, "%s at %s", fmt.Sprintf(format, a...), bs.StringChain())
}

func (bs *BufStack) Read(amount int) ([]byte, error) {
	if amount < 0 || amount > bs.Remaining() {
		return nil, bs.errorf("read of 0x%x bytes overruns 0x%x remaining", amount, bs.Remaining())
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos], nil
}

// Rest consumes and returns everything left.
func (bs *BufStack) Rest() []byte {
	b := bs.buf[bs.pos:]
	bs.pos = len(bs.buf)
	return b
}

func (bs *BufStack) Skip(amount int) error {
	_, err := bs.Read(amount)
	return err
}

func (bs *BufStack) ReadLU64() (uint64, error) {
	b, err := bs.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (bs *BufStack) ReadLU32() (uint32, error) {
	b, err := bs.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (bs *BufStack) ReadLU16() (uint16, error) {
	b, err := bs.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (bs *BufStack) ReadByte() (byte, error) {
	b, err := bs.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (bs *BufStack) ReadLI64() (int64, error) {
	v, err := bs.ReadLU64()
	return int64(v), err
}

func (bs *BufStack) ReadLI32() (int32, error) {
	v, err := bs.ReadLU32()
	return int32(v), err
}

func (bs *BufStack) ReadLI16() (int16, error) {
	v, err := bs.ReadLU16()
	return int16(v), err
}

func (bs *BufStack) ReadI8() (int8, error) {
	v, err := bs.ReadByte()
	return int8(v), err
}

func (bs *BufStack) ReadBool() (bool, error) {
	v, err := bs.ReadByte()
	return v != 0, err
}

func (bs *BufStack) ReadLF() (float32, error) {
	v, err := bs.ReadLU32()
	return math.Float32frombits(v), err
}

func (bs *BufStack) ReadLD() (float64, error) {
	v, err := bs.ReadLU64()
	return math.Float64frombits(v), err
}

// ReadLFs reads count consecutive float32 values into out.
func (bs *BufStack) ReadLFs(out []float32) error {
	b, err := bs.Read(4 * len(out))
	if err != nil {
		return err
	}
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return nil
}

func (bs *BufStack) ReadStringBuffer(size int) (string, error) {
	b, err := bs.Read(size)
	if err != nil {
		return "", err
	}
	return BytesToString(b), nil
}

// ReadLString reads a u32 length prefixed string.
func (bs *BufStack) ReadLString() (string, error) {
	l, err := bs.ReadLU32()
	if err != nil {
		return "", err
	}
	return bs.ReadStringBuffer(int(l))
}

// VerifySize fails when bytes are left unread.
func (bs *BufStack) VerifySize() error {
	if bs.pos != len(bs.buf) {
		return bs.errorf("mismatch sizes: consumed 0x%x of 0x%x", bs.pos, len(bs.buf))
	}
	return nil
}
