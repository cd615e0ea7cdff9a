package replay

import (
	"bytes"
	"encoding/binary"

	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/crypt"
	"github.com/mogaika/wows_replay_parser/utils"
)

var Magic = [4]byte{0x12, 0x32, 0x34, 0x11}

// Container is the outer layout of a .wowsreplay file.
type Container struct {
	Magic       [4]byte
	BlocksCount uint32
	MetaString  string
	// JSON blocks that follow the meta, kept raw
	ExtraBlocks      [][]byte
	DecompressedSize uint32
	StreamSize       uint32
	// encrypted zlib packet stream
	Stream []byte
}

func readBlock(bs *utils.BufStack, kind string) ([]byte, error) {
	size, err := bs.ReadLU32()
	if err != nil {
		return nil, err
	}
	block, err := bs.SubBuf(kind, int(size))
	if err != nil {
		return nil, err
	}
	return block.Raw(), nil
}

func ReadContainer(data []byte, log zerolog.Logger) (*Container, error) {
	bs := utils.NewBufStack("replay", data)
	c := &Container{}

	magic, err := bs.Read(4)
	if err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "replay header")
	}
	copy(c.Magic[:], magic)
	if !bytes.Equal(magic, Magic[:]) {
		log.Warn().Hex("magic", magic).Msg("Unexpected replay magic")
	}

	if c.BlocksCount, err = bs.ReadLU32(); err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "blocks count")
	}
	meta, err := readBlock(bs, "meta")
	if err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "meta block")
	}
	c.MetaString = string(meta)

	for i := uint32(1); i < c.BlocksCount; i++ {
		block, err := readBlock(bs, "block")
		if err != nil {
			return nil, utils.WrapError(utils.KindStructural, err, "extra block %d", i)
		}
		c.ExtraBlocks = append(c.ExtraBlocks, block)
	}

	if c.DecompressedSize, err = bs.ReadLU32(); err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "decompressed size")
	}
	if c.StreamSize, err = bs.ReadLU32(); err != nil {
		return nil, utils.WrapError(utils.KindStructural, err, "stream size")
	}
	c.Stream = bs.Rest()

	log.Debug().Uint32("blocks", c.BlocksCount).Int("meta", len(c.MetaString)).
		Uint32("decompressed", c.DecompressedSize).Int("stream", len(c.Stream)).Msg("Read replay container")
	return c, nil
}

func appendBlock(b []byte, block []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(block)))
	return append(b, block...)
}

// Bytes serializes the container. BlocksCount is derived from ExtraBlocks.
func (c *Container) Bytes() []byte {
	b := append([]byte(nil), c.Magic[:]...)
	b = binary.LittleEndian.AppendUint32(b, uint32(1+len(c.ExtraBlocks)))
	b = appendBlock(b, []byte(c.MetaString))
	for _, block := range c.ExtraBlocks {
		b = appendBlock(b, block)
	}
	b = binary.LittleEndian.AppendUint32(b, c.DecompressedSize)
	b = binary.LittleEndian.AppendUint32(b, c.StreamSize)
	return append(b, c.Stream...)
}

// Pack builds a replay file from a meta string and a raw packet stream.
func Pack(meta string, extra [][]byte, stream []byte) ([]byte, error) {
	packed, err := crypt.Deflate(stream)
	if err != nil {
		return nil, err
	}
	enc, err := crypt.Encrypt(packed)
	if err != nil {
		return nil, err
	}
	c := &Container{
		Magic:            Magic,
		MetaString:       meta,
		ExtraBlocks:      extra,
		DecompressedSize: uint32(len(stream)),
		StreamSize:       uint32(len(enc)),
		Stream:           enc,
	}
	return c.Bytes(), nil
}
