package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/voice-chess-go/internal/chess/uci"
)

// enginecheck verifies the local Stockfish install and reports which
// provider keys are present, without starting the server.
func main() {
	_ = godotenv.Load()

	path := os.Getenv("STOCKFISH_PATH")
	if path == "" {
		log.Fatal("STOCKFISH_PATH is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := uci.NewSession(ctx, path, uci.Options{Threads: 1, HashMB: 16})
	if err != nil {
		log.Fatalf("engine start error: %v", err)
	}
	defer sess.Close()

	if err := sess.EnsureReady(ctx); err != nil {
		log.Fatalf("engine not ready: %v", err)
	}
	if err := sess.SetSkillLevel(5); err != nil {
		log.Fatalf("set skill level error: %v", err)
	}
	best, err := sess.BestMove(ctx, nil, 100)
	if err != nil {
		log.Fatalf("search error: %v", err)
	}
	log.Printf("engine ok: bestmove %s from start position", best)

	for _, key := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		if os.Getenv(key) != "" {
			log.Printf("%s set", key)
		} else {
			log.Printf("%s not set", key)
		}
	}
}
