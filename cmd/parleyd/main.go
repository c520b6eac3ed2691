// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command parleyd runs the local development backend for parley.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/devserver"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.parley/config.toml)")
	listenAddr := flag.String("listen", "", "listen address override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parleyd: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.DevServer.ListenAddr = *listenAddr
	}

	if cfg.DevServer.JWTSecret == "" {
		// Sessions signed with an ephemeral secret die with the process,
		// which is the right default for a development backend.
		cfg.DevServer.JWTSecret = randomSecret()
		log.Print("no jwt_secret configured; using an ephemeral secret, sessions will not survive restarts")
	}

	srv := devserver.New(cfg.DevServer)
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "parleyd: %v\n", err)
		os.Exit(1)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
