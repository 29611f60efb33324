package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"userdocs-backend/config"
	"userdocs-backend/database"
	"userdocs-backend/models"
	"userdocs-backend/repository"
	"userdocs-backend/service"
	"userdocs-backend/storage"
)

func main() {
	username := flag.String("username", "testuser", "username of the test account")
	password := flag.String("password", "testpassword123", "password of the test account")
	file := flag.String("file", "", "optional text file to attach to the account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db, nil); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	hasher, err := service.NewPasswordHasher(cfg.Auth.PasswordScheme, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to select password scheme: %v", err)
	}
	stored, err := hasher.Hash(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	repo := repository.NewUserRepository(db)
	user, err := repo.Create(ctx, &models.User{
		Username:  *username,
		Password:  stored,
		Firstname: "Test",
		Lastname:  "User",
		Email:     *username + "@example.com",
	})
	if errors.Is(err, repository.ErrDuplicateUsername) {
		log.Printf("User %s already exists", *username)
		return
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Test user created\n")
	fmt.Printf("   ID: %d\n", user.ID)
	fmt.Printf("   Username: %s\n", user.Username)
	fmt.Printf("   Password: %s\n", *password)
	fmt.Printf("   Scheme: %s\n", cfg.Auth.PasswordScheme)

	if *file != "" {
		name, err := attach(ctx, cfg, repository.NewDocumentRepository(db), user.Username, *file)
		if err != nil {
			log.Fatalf("Failed to attach %s: %v", *file, err)
		}
		fmt.Printf("   Document: %s\n", name)
	}
}

func attach(ctx context.Context, cfg *config.Config, index *repository.DocumentRepository, username, path string) (string, error) {
	st, err := storage.NewStorage(ctx, storage.StorageConfig{
		Type:         storage.StorageType(cfg.Storage.Type),
		LocalPath:    cfg.Storage.LocalPath,
		S3Bucket:     cfg.Storage.S3Bucket,
		S3Region:     cfg.Storage.S3Region,
		S3Endpoint:   cfg.Storage.S3Endpoint,
		AWSAccessKey: cfg.Storage.AWSAccessKey,
		AWSSecretKey: cfg.Storage.AWSSecretKey,
	})
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	docs := service.NewDocumentService(
		service.DocumentWithStorage(st),
		service.DocumentWithAllowedExtensions(cfg.Upload.AllowedExtensions...),
	)
	name, err := docs.SaveUpload(ctx, username, filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return name, index.Upsert(ctx, &models.Document{OwnerUsername: username, StoredName: name})
}
