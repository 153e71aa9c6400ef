package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"activation/internal/config"
	"activation/internal/database"
	"activation/internal/domain"
	"activation/internal/util"
)

// create_admin seeds the first super admin so the dashboard can be used to
// create everyone else.
func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "super admin email (ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "super admin password, at least 8 characters (ADMIN_PASSWORD)")
	name := flag.String("name", "System Administrator", "display name")
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || len(*password) < 8 {
		flag.Usage()
		os.Exit(2)
	}

	if _, err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	db := database.GetDB()

	var existing domain.User
	err := db.Where("email = ?", addr).First(&existing).Error
	if err == nil {
		fmt.Printf("User %s already exists (role: %s)\n", addr, existing.Role)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	hashedPassword, err := util.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := domain.User{
		Name:           strings.TrimSpace(*name),
		Email:          addr,
		HashedPassword: hashedPassword,
		Role:           domain.RoleSuper,
		IsActive:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create super admin: %v", err)
	}

	fmt.Println("Super admin created successfully!")
	fmt.Printf("Email: %s\n", addr)
	fmt.Println("Log in to the dashboard and create the remaining staff accounts.")
}
