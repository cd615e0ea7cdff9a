package utils

import "math/bits"

// BitReader reads MSB-first bit fields from a byte span.
type BitReader struct {
	data     []byte
	pos      int
	cur      byte
	bitsLeft int
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// BitsRequired returns how many bits are needed to index n distinct values.
func BitsRequired(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

func (br *BitReader) Get(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, NewError(KindStructural, "bit read of %d bits out of range", n)
	}
	if n > br.Remaining() {
		return 0, NewError(KindStructural, "bit read of %d bits overruns %d remaining", n, br.Remaining())
	}
	var v uint32
	for n > 0 {
		if br.bitsLeft == 0 {
			br.cur = br.data[br.pos]
			br.pos++
			br.bitsLeft = 8
		}
		take := n
		if take > br.bitsLeft {
			take = br.bitsLeft
		}
		shift := br.bitsLeft - take
		chunk := uint32(br.cur>>uint(shift)) & (1<<uint(take) - 1)
		v = v<<uint(take) | chunk
		br.bitsLeft -= take
		n -= take
	}
	return v, nil
}

// Remaining counts unread bits, including the rest of the current byte.
func (br *BitReader) Remaining() int {
	return br.bitsLeft + 8*(len(br.data)-br.pos)
}

func (br *BitReader) Aligned() bool {
	return br.bitsLeft == 0
}

// DiscardToByte drops the unread bits of the current byte.
func (br *BitReader) DiscardToByte() {
	br.bitsLeft = 0
}

// GetAll consumes the remaining whole bytes. The cursor must be aligned.
func (br *BitReader) GetAll() ([]byte, error) {
	if br.bitsLeft != 0 {
		return nil, NewError(KindStructural, "GetAll on unaligned bit reader (%d bits pending)", br.bitsLeft)
	}
	rest := br.data[br.pos:]
	br.pos = len(br.data)
	return rest, nil
}
