package utils

import (
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

func FDump(w io.Writer, a ...interface{}) {
	spewConfig.Fdump(w, a...)
}

func LogDump(l zerolog.Logger, msg string, a ...interface{}) {
	l.Debug().Str("dump", spewConfig.Sdump(a...)).Msg(msg)
}
