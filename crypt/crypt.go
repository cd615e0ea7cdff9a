package crypt

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/crypto/blowfish"

	"github.com/mogaika/wows_replay_parser/utils"
)

const BlockSize = blowfish.BlockSize

var ReplayKey = []byte{0x29, 0xB7, 0xC9, 0x09, 0x38, 0x3F, 0x84, 0x88, 0xFA, 0x98, 0xEC, 0x4E, 0x13, 0x19, 0x79, 0xFB}

const (
	inflateChunk = 64 * 1024
	// preallocation bounds for the untrusted size hint
	maxInflateRatio    = 32
	maxInflatePrealloc = 64 << 20
)

// Decrypt undoes the replay stream cipher: Blowfish per block, then each
// plaintext block is xored with the previous plaintext block.
func Decrypt(data []byte) ([]byte, error) {
	return DecryptWithKey(data, ReplayKey)
}

func DecryptWithKey(data []byte, key []byte) ([]byte, error) {
	if len(data)%BlockSize != 0 {
		return nil, utils.NewError(utils.KindCrypto, "encrypted stream length %d is not a multiple of %d", len(data), BlockSize)
	}
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, utils.WrapError(utils.KindCrypto, err, "invalid key")
	}

	out := make([]byte, len(data))
	var prev [BlockSize]byte
	for off := 0; off < len(data); off += BlockSize {
		block := out[off : off+BlockSize]
		c.Decrypt(block, data[off:off+BlockSize])
		for j := range block {
			block[j] ^= prev[j]
			prev[j] = block[j]
		}
	}
	return out, nil
}

// Inflate decompresses a zlib stream. sizeHint preallocates and is otherwise
// advisory. It is clamped to maxInflateRatio times the input and to
// maxInflatePrealloc, past that the output grows in chunks.
func Inflate(data []byte, sizeHint int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, utils.WrapError(utils.KindCompression, err, "bad zlib header")
	}
	defer zr.Close()

	if limit := len(data) * maxInflateRatio; sizeHint > limit {
		sizeHint = limit
	}
	if sizeHint > maxInflatePrealloc {
		sizeHint = maxInflatePrealloc
	}
	if sizeHint <= 0 {
		sizeHint = inflateChunk
	}
	out := make([]byte, 0, sizeHint)
	for {
		if cap(out)-len(out) < inflateChunk {
			grown := make([]byte, len(out), cap(out)+inflateChunk)
			copy(grown, out)
			out = grown
		}
		n, err := zr.Read(out[len(out):cap(out)])
		out = out[:len(out)+n]
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, utils.WrapError(utils.KindCompression, err, "inflate failed after %d bytes", len(out))
		}
	}
	return out, nil
}

// Encrypt is the inverse of Decrypt. The input is zero padded to a whole
// number of blocks.
func Encrypt(plain []byte) ([]byte, error) {
	c, err := blowfish.NewCipher(ReplayKey)
	if err != nil {
		return nil, utils.WrapError(utils.KindCrypto, err, "invalid key")
	}
	padded := make([]byte, (len(plain)+BlockSize-1)/BlockSize*BlockSize)
	copy(padded, plain)

	out := make([]byte, len(padded))
	var prev, mixed [BlockSize]byte
	for off := 0; off < len(padded); off += BlockSize {
		for j := range mixed {
			mixed[j] = padded[off+j] ^ prev[j]
		}
		c.Encrypt(out[off:off+BlockSize], mixed[:])
		copy(prev[:], padded[off:off+BlockSize])
	}
	return out, nil
}

func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, utils.WrapError(utils.KindCompression, err, "deflate")
	}
	if err := zw.Close(); err != nil {
		return nil, utils.WrapError(utils.KindCompression, err, "deflate")
	}
	return buf.Bytes(), nil
}
