package main

import (
	"context"
	"log"
	"os"

	"mines_arena/internal/db"
	"mines_arena/internal/domain"
	"mines_arena/internal/repository"
	"mines_arena/internal/service"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewPlayerRepository(pool)
	ctx := context.Background()

	name := "tester"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	p := &domain.Player{Name: name}
	if err := repo.Create(ctx, p); err != nil {
		log.Fatalf("create player failed: %v", err)
	}
	log.Printf("player created id=%d name=%s gems=%d\n", p.ID, p.Name, p.WalletBalance)

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(p.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
