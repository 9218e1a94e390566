package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	pkgconfig "github.com/tendant/eligibility-idm/pkg/config"
	"github.com/tendant/eligibility-idm/pkg/database"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/tendant/eligibility-idm/pkg/signup"
)

type Config struct {
	DatabaseConfig pkgconfig.DatabaseConfig
	LogConfig      pkgconfig.LogConfig
}

func main() {
	email := flag.String("email", "", "Email of the new user (required)")
	name := flag.String("name", "", "Full name of the new user (required)")
	password := flag.String("password", "", "Password of the new user (required)")
	roles := flag.String("role", role.Admin.String(), "Comma separated roles to assign")
	flag.Parse()

	if *email == "" || *name == "" || *password == "" {
		fmt.Println("Error: email, name, and password are required")
		flag.Usage()
		os.Exit(1)
	}

	config := Config{}
	if err := cleanenv.ReadEnv(&config); err != nil {
		fmt.Println("Error reading environment:", err)
		os.Exit(1)
	}
	slog.SetDefault(config.LogConfig.NewLogger())

	var assigned []role.Role
	for _, value := range strings.Split(*roles, ",") {
		r, err := role.ParseRole(strings.TrimSpace(value))
		if err != nil {
			slog.Error("Invalid role", "role", value, "err", err)
			os.Exit(1)
		}
		assigned = append(assigned, r)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig)
	if err != nil {
		slog.Error("Failed opening database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("Failed migrating database", "err", err)
		os.Exit(1)
	}

	user, err := signup.NewSignupService(db).CreateRegisteredUser(ctx, signup.RegisterUserRequest{
		FullName: *name,
		Email:    *email,
		Roles:    assigned,
	}, *password)
	if err != nil {
		slog.Error("Failed creating user", "email", *email, "err", err)
		os.Exit(1)
	}

	slog.Info("User created", "id", user.ID, "email", user.Email, "roles", *roles)
}
