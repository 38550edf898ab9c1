package main

import (
	"fmt"
	"log"
	"net/http"

	"strategos-backend/internal/config"
	"strategos-backend/internal/server"
)

func main() {
	cfg := config.Load()
	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	addr := ":" + cfg.Port
	fmt.Printf("STRATEGOS server listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
