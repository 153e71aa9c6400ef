package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"activation/internal/config"
)

// DatabaseDownload is a base64 snapshot of the SQLite database file.
type DatabaseDownload struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// UtilityService holds maintenance operations for super admins.
type UtilityService struct {
	cfg *config.DatabaseConfig
}

// NewUtilityService creates a new utility service
func NewUtilityService(cfg *config.DatabaseConfig) *UtilityService {
	return &UtilityService{cfg: cfg}
}

// DownloadDatabase returns the SQLite database file. PostgreSQL deployments
// are backed up with their own tooling.
func (s *UtilityService) DownloadDatabase(ctx context.Context, caller *Caller) (*DatabaseDownload, error) {
	if err := requireSuper(caller); err != nil {
		return nil, err
	}
	if s.cfg.IsPostgres() {
		return nil, NewPreconditionFailedError("Database download is only available for SQLite")
	}

	path := s.cfg.GetSQLitePath()
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[UTILITY] Database download failed: %v", err)
		return nil, NewInternalError("Failed to download database", fmt.Errorf("read %s: %w", path, err))
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	log.Printf("[UTILITY] Database download by %s (%d bytes)", caller.UserID, len(data))
	return &DatabaseDownload{
		Filename: "database-backup-" + stamp + ".sqlite",
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
