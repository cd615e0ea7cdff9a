package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/mogaika/wows_replay_parser/analyzer"
	"github.com/mogaika/wows_replay_parser/batch"
	"github.com/mogaika/wows_replay_parser/config"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/schema"
	"github.com/mogaika/wows_replay_parser/utils"
	"github.com/mogaika/wows_replay_parser/web"
)

func main() {
	var cfgpath, replaypath, dir, schemaroot, addr, loglevel string
	var workers int
	flag.StringVar(&cfgpath, "c", "", "Path to yaml config")
	flag.StringVar(&replaypath, "replay", "", "Replay file to analyze")
	flag.StringVar(&dir, "dir", "", "Directory with replays to analyze")
	flag.StringVar(&schemaroot, "schema", "", "Path to folder with per version scripts, overrides config")
	flag.StringVar(&addr, "i", "", "Address of server, overrides config")
	flag.IntVar(&workers, "workers", 0, "Number of batch workers, overrides config")
	flag.StringVar(&loglevel, "loglevel", "", "Log level, overrides config")
	flag.Parse()

	cfg, err := config.Load(cfgpath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if schemaroot != "" {
		cfg.SchemaRoot = schemaroot
	}
	if addr != "" {
		cfg.Listen = addr
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if loglevel != "" {
		cfg.LogLevel = loglevel
	}
	if err := utils.SetupLogger(cfg.LogLevel, cfg.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logger")
	}

	specs := schema.NewCache(os.DirFS(cfg.SchemaRoot), utils.Component("schema"))

	var srv *web.Server
	if shouldServe(replaypath, dir, addr) {
		srv = web.NewServer(specs, nil, cfg.UploadLimitMB, utils.Component("web"))
		go func() {
			if err := srv.ListenAndServe(cfg.Listen); err != nil {
				log.Fatal().Err(err).Msg("Server stopped")
			}
		}()
	}

	switch {
	case replaypath != "":
		r, err := replay.ParseFile(replaypath, specs, utils.Component("replay"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse replay")
		}
		summary, err := analyzer.Analyze(r, nil, utils.Component("analyzer"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to analyze replay")
		}
		out, err := summary.JSON()
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		os.Stdout.Write(append(out, '\n'))
	case dir != "":
		paths, err := batch.Collect(dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to collect replays")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		pool := &batch.Pool{Workers: cfg.Workers, Specs: specs, Log: utils.Component("batch")}
		if srv != nil {
			pool.Reporter = srv.Hub
		}
		failed := 0
		for _, res := range pool.Run(ctx, paths) {
			if res.Err != nil {
				failed++
				continue
			}
			out, err := res.Summary.JSON()
			if err != nil {
				log.Error().Err(err).Str("replay", res.Path).Send()
				continue
			}
			os.Stdout.Write(append(out, '\n'))
		}
		log.Info().Int("total", len(paths)).Int("failed", failed).Msg("Batch done")
	default:
		select {}
	}
}

// shouldServe reports whether the web server runs. It always does without
// a replay or directory to analyze, and alongside them when -i is given.
func shouldServe(replaypath, dir, addr string) bool {
	return addr != "" || (replaypath == "" && dir == "")
}
