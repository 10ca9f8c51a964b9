// Command server is AirIndex's query-serving daemon: it opens a built
// index read-only and serves point lookups over both the binary wire
// protocol (pkg/queryserver) and the JSON HTTP surface (pkg/httpapi),
// configured the way the teacher's server entrypoint loaded its
// listener/storage settings from pkg/config.
package main

import (
	"context"
	"flag"
	"log"

	"airindex/pkg/config"
	"airindex/pkg/httpapi"
	"airindex/pkg/index"
	"airindex/pkg/queryserver"
	"airindex/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to airindex.yaml (defaults to configs/airindex.yaml or airindex.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("server: load config: %v", err)
	}

	ctx := context.Background()
	dataStore, err := storage.Open(ctx, cfg.Storage.DatasetPath)
	if err != nil {
		log.Fatalf("server: open dataset %s: %v", cfg.Storage.DatasetPath, err)
	}

	reader, err := index.Open(ctx, cfg.Storage.IndexPath, dataStore)
	if err != nil {
		log.Fatalf("server: open index %s: %v", cfg.Storage.IndexPath, err)
	}
	defer reader.Close()

	log.Printf("AirIndex server: index=%s depth=%d tcp=%s http=%s", cfg.Storage.IndexPath, reader.Depth(), cfg.Server.TCPAddr, cfg.Server.HTTPAddr)

	tcpSrv := queryserver.New(reader, index.ErrNotFound)
	go func() {
		if err := tcpSrv.Start(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("server: tcp listener: %v", err)
		}
	}()

	httpSrv := httpapi.NewServer(reader, index.ErrNotFound, reader.Depth, nil, nil)
	if err := httpSrv.Start(cfg.Server.HTTPAddr); err != nil {
		log.Fatalf("server: http listener: %v", err)
	}
}
