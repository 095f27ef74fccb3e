package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/files"
	"filevault-backend/internal/links"
	"filevault-backend/internal/shared/auth"
	"filevault-backend/internal/shared/config"
	"filevault-backend/internal/shared/server"
	"filevault-backend/internal/shared/storage/blob"
	"filevault-backend/internal/shared/storage/blob/crypto"
	localstore "filevault-backend/internal/shared/storage/blob/local"
	s3store "filevault-backend/internal/shared/storage/blob/s3"
	"filevault-backend/internal/shared/storage/db"
	"filevault-backend/internal/shared/telemetry"
)

// App is the assembled application.
type App struct {
	Router *gin.Engine
	DB     *sql.DB
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// Build resolves configuration into a running dependency graph. Without a
// reachable database the metadata layer falls back to memory, which keeps
// local development working with nothing but a storage directory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB := connectDatabase(ctx, cfg)

	store, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	encrypted := crypto.New(store, crypto.ResolveKey(cfg.EncryptionKey))

	var filesRepo files.FilesRepo
	var linksRepo links.LinksRepo
	if sqlDB != nil {
		filesRepo = &files.PGRepo{DB: sqlDB}
		linksRepo = &links.PGRepo{DB: sqlDB}
	} else {
		filesRepo = files.NewMemoryRepo()
		linksRepo = links.NewMemoryRepo()
	}

	filesSvc := &files.Service{Blobs: encrypted, Repo: filesRepo}
	linksSvc := &links.Service{Repo: linksRepo, Files: filesRepo, DefaultTTL: cfg.LinkDefaultTTL}

	router := server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Files:    files.NewHandler(filesSvc, cfg.MaxUploadBytes),
		Links:    links.NewHandler(linksSvc, filesSvc),
	})

	return &App{Router: router, DB: sqlDB}, nil
}

func connectDatabase(ctx context.Context, cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Warn("bootstrap.db_connect", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Warn("bootstrap.db_migrate", map[string]any{
			"error": err.Error(),
		})
		_ = sqlDB.Close()
		return nil
	}
	return sqlDB
}

func buildBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.StorageDir), nil
	}
}
