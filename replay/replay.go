package replay

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/crypt"
	"github.com/mogaika/wows_replay_parser/packet"
	"github.com/mogaika/wows_replay_parser/schema"
)

// SchemaSource provides entity specs for a client version. *schema.Cache
// is the usual implementation.
type SchemaSource interface {
	Get(version config.Version) ([]*schema.EntitySpec, error)
}

type Replay struct {
	Meta       Meta
	MetaString string
	Version    config.Version
	Packets    []packet.Packet
	Session    *packet.Session
}

// Parse decodes a whole replay held in memory.
func Parse(data []byte, specs SchemaSource, log zerolog.Logger) (*Replay, error) {
	c, err := ReadContainer(data, log)
	if err != nil {
		return nil, err
	}
	meta, err := ParseMeta(c.MetaString)
	if err != nil {
		return nil, err
	}
	version, err := meta.Version()
	if err != nil {
		return nil, err
	}

	decrypted, err := crypt.Decrypt(c.Stream)
	if err != nil {
		return nil, err
	}
	stream, err := crypt.Inflate(decrypted, int(c.DecompressedSize))
	if err != nil {
		return nil, err
	}
	if int(c.DecompressedSize) != len(stream) {
		log.Warn().Uint32("declared", c.DecompressedSize).Int("actual", len(stream)).Msg("Decompressed size mismatch")
	}

	entitySpecs, err := specs.Get(version)
	if err != nil {
		return nil, err
	}

	s := packet.NewSession(entitySpecs, version, log)
	packets, err := s.ParsePackets(stream)
	if err != nil {
		return nil, err
	}
	return &Replay{
		Meta:       *meta,
		MetaString: c.MetaString,
		Version:    version,
		Packets:    packets,
		Session:    s,
	}, nil
}

func ParseFile(path string, specs SchemaSource, log zerolog.Logger) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read replay %q", path)
	}
	r, err := Parse(data, specs, log.With().Str("replay", path).Logger())
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse replay %q", path)
	}
	return r, nil
}
