package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/lbartoletti/jupytergis/internal/logger"
	"github.com/lbartoletti/jupytergis/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Addr   string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port   int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"    default:"8080"`
	Engine string `short:"e" long:"engine" env:"ENGINE"         description:"Processing engine"    default:"native" choice:"native" choice:"none"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	var engine server.Engine
	if opts.Engine == "native" {
		engine = server.NativeEngine{}
	}

	srvCtx := server.NewServerContext(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/sfcgal", srvCtx.HandleSFCGAL)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("engine", opts.Engine).
		Msg("Processing server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
