package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"gym-membership-billing/internal/config"
	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/api"
	pg "gym-membership-billing/internal/infra/db/postgres"
)

// Fixed ids keep the seed idempotent: every write is an upsert on id.
const (
	adminUserID  = "00000000-0000-0000-0000-0000000000a1"
	memberUserID = "00000000-0000-0000-0000-0000000000b1"
	memberID     = "00000000-0000-0000-0000-0000000000c1"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	settingsRepo := pg.NewSettingsRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)

	// ---- Plans ----
	seed := []struct {
		ID     string
		Name   string
		Price  int64
		Months int
		AddOn  bool
	}{
		{"plan-monthly", "Monthly", 1500, 1, false},
		{"plan-quarterly", "Quarterly", 4000, 3, false},
		{"plan-annual", "Annual", 14000, 12, false},
		{"plan-pt", "Personal Training", 500, 0, true},
	}
	for _, s := range seed {
		p, err := model.NewMembershipPlan(s.ID, s.Name, s.Price, s.Months, s.AddOn)
		if err != nil {
			log.Fatalf("plan %s: %v", s.Name, err)
		}
		if err := planRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save plan %s: %v", s.Name, err)
		}
		fmt.Printf("  - plan %s (months=%d, price=%d, add-on=%v)\n", p.Name, p.DurationMonths, p.Price, p.IsAddOn)
	}

	// ---- Catalog & settings ----
	if err := productRepo.Save(ctx, repository.NoTX, &model.Product{ID: "prod-shake", Name: "Protein Shake", Price: 150, IsActive: true}); err != nil {
		log.Fatalf("save product: %v", err)
	}
	if err := settingsRepo.Save(ctx, repository.NoTX, &model.Settings{PersonalTrainingPrice: model.DefaultPersonalTrainingPrice}); err != nil {
		log.Fatalf("save settings: %v", err)
	}

	// ---- Accounts ----
	admin, err := model.NewUser(adminUserID, "Front Desk", "admin@gym.local", model.RoleAdmin)
	if err != nil {
		log.Fatalf("admin: %v", err)
	}
	memberUser, err := model.NewUser(memberUserID, "Asha Rao", "asha@gym.local", model.RoleMember)
	if err != nil {
		log.Fatalf("member user: %v", err)
	}
	for _, u := range []*model.User{admin, memberUser} {
		if err := userRepo.Save(ctx, repository.NoTX, u); err != nil {
			log.Fatalf("save user %s: %v", u.Email, err)
		}
	}

	// the member row carries membership state, so leave an existing one alone
	if _, err := memberRepo.FindByID(ctx, repository.NoTX, memberID); errors.Is(err, domain.ErrNotFound) {
		m := &model.Member{ID: memberID, UserID: memberUserID, Name: memberUser.Name, UpdatedAt: time.Now()}
		if err := memberRepo.Save(ctx, repository.NoTX, m); err != nil {
			log.Fatalf("save member: %v", err)
		}
	} else if err != nil {
		log.Fatalf("find member: %v", err)
	}

	// ---- Dev tokens ----
	auth := api.NewAuthManager(cfg.HTTP.JWTSecret, 30*24*time.Hour)
	adminTok, err := auth.Mint(adminUserID, model.RoleAdmin, "")
	if err != nil {
		log.Fatalf("mint admin token: %v", err)
	}
	memberTok, err := auth.Mint(memberUserID, model.RoleMember, memberID)
	if err != nil {
		log.Fatalf("mint member token: %v", err)
	}
	fmt.Println("Seed complete.")
	fmt.Printf("admin token:  %s\n", adminTok)
	fmt.Printf("member token: %s\n", memberTok)
}
