package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mogaika/wows_replay_parser/packet"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/schema"
	"github.com/mogaika/wows_replay_parser/utils"
)

func main() {
	var schemaroot, kinds string
	var meta, stats, invalid bool
	flag.StringVar(&schemaroot, "schema", "scripts", "Path to folder with per version scripts")
	flag.StringVar(&kinds, "kind", "", "Comma separated packet kinds to print, e.g. EntityMethod,Camera")
	flag.BoolVar(&meta, "meta", false, "Print replay meta")
	flag.BoolVar(&stats, "stats", false, "Print packet count per kind instead of packets")
	flag.BoolVar(&invalid, "invalid", false, "Print only packets that failed to decode")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file.wowsreplay\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := utils.SetupLogger("warn", true); err != nil {
		log.Fatal().Err(err).Send()
	}

	specs := schema.NewCache(os.DirFS(schemaroot), utils.Component("schema"))
	r, err := replay.ParseFile(flag.Arg(0), specs, utils.Component("replay"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse replay")
	}

	if meta {
		utils.FDump(os.Stdout, r.Meta)
	}

	filter := make(map[string]bool)
	for _, k := range strings.Split(kinds, ",") {
		if k = strings.TrimSpace(k); k != "" {
			filter[k] = true
		}
	}

	counts := make(map[string]int)
	for i, p := range r.Packets {
		name := p.Kind().String()
		_, bad := p.(*packet.InvalidPacket)
		if (len(filter) != 0 && !filter[name]) || (invalid && !bad) {
			continue
		}
		counts[name]++
		if !stats {
			fmt.Printf("#%d %.3f %s\n", i, p.Time(), name)
			utils.FDump(os.Stdout, p)
		}
	}

	if stats {
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("%-28s %d\n", n, counts[n])
		}
	}
}
