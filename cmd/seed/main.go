package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"oraclia-chat-platform/internal/config"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/repository"
	pg "oraclia-chat-platform/internal/infra/db/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	agentRepo := pg.NewAgentRepo(pool)
	statsRepo := pg.NewAgentStatsRepo(pool)
	psychicRepo := pg.NewPsychicRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// If profiles already exist, do nothing.
	existing, err := psychicRepo.List(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list psychics: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d psychic profiles already present. No changes.\n", len(existing))
		return
	}

	seed := []struct {
		AgentID   string
		Agent     string
		PsychicID string
		Name      string
		Specialty string
	}{
		{"agent-1", "marie", "psychic-luna", "Luna", "tarot"},
		{"agent-1", "marie", "psychic-sol", "Sol", "astrologie"},
		{"agent-2", "paul", "psychic-iris", "Iris", "numérologie"},
	}

	seen := map[string]bool{}
	for _, s := range seed {
		if !seen[s.AgentID] {
			a, err := model.NewAgent(s.AgentID, s.Agent)
			if err != nil {
				log.Fatalf("agent %s: %v", s.AgentID, err)
			}
			if err := agentRepo.Save(ctx, repository.NoTX, a); err != nil {
				log.Fatalf("save agent %s: %v", s.AgentID, err)
			}
			// Every agent carries an activity row from day one.
			if err := statsRepo.Save(ctx, repository.NoTX, model.NewAgentStats(a.ID)); err != nil {
				log.Fatalf("save agent stats %s: %v", s.AgentID, err)
			}
			seen[s.AgentID] = true
		}
		p, err := model.NewPsychicProfile(s.PsychicID, s.AgentID, s.Name, s.Specialty)
		if err != nil {
			log.Fatalf("psychic %s: %v", s.PsychicID, err)
		}
		if err := psychicRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save psychic %s: %v", s.PsychicID, err)
		}
		fmt.Printf("  - %s (%s) for %s\n", p.Name, p.Specialty, s.Agent)
	}

	admin := &model.User{ID: "admin", Username: "backoffice", Email: "ops@example.invalid", Role: model.RoleAdmin, SignupDate: time.Now()}
	if err := userRepo.Save(ctx, repository.NoTX, admin); err != nil {
		log.Fatalf("save admin: %v", err)
	}

	client, err := model.NewClient("", "demo", "demo@example.invalid")
	if err != nil {
		log.Fatalf("demo client: %v", err)
	}
	client.FreeMinutes = cfg.Billing.SignupFreeMinutes
	if err := userRepo.Save(ctx, repository.NoTX, client); err != nil {
		log.Fatalf("save demo client: %v", err)
	}

	fmt.Println("Seed complete.")
}
