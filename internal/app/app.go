package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/config"
	"bt-catalog/internal/database"
	"bt-catalog/internal/encryption"
	"bt-catalog/internal/fs"
	"bt-catalog/internal/vault"
)

// BTApp is the application layer between the CLI and bt.Service.
// It constructs all dependencies from config, exposes the operations the
// CLI needs, and manages the catalog lifecycle on Close.
type BTApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     bt.Vault // nil when no vault is configured
	encryptor bt.Encryptor
	service   *bt.Service
	op        *Operation
	logger    bt.Logger
	clock     bt.Clock
	logFile   *os.File
}

// NewBTApp creates a fully wired BTApp from the given config.
// operation names the CLI command being run. The caller must call Close.
func NewBTApp(cfg *config.Config, operation, parameters string) (*BTApp, error) {
	clock := bt.RealClock{}
	op := NewOperation(operation, parameters, clock.Now())

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slogger, logFile, err := newLogger(cfg.LogDir, op, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	a, err := wire(cfg, op, logger, clock)
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func wire(cfg *config.Config, op *Operation, logger bt.Logger, clock bt.Clock) (*BTApp, error) {
	h, err := newHasher(cfg.Hashing, logger)
	if err != nil {
		return nil, err
	}

	var v bt.Vault
	if len(cfg.Vaults) > 0 {
		if v, err = vault.NewVaultFromConfig(cfg.Vaults[0]); err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager(cfg.Filesystem.Ignore)
	svc := bt.NewService(db, h, fsmgr, v, encryption.NewSealer(enc), cfg.HostID, logger, clock)

	return &BTApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		op:        op,
		logger:    logger,
		clock:     clock,
	}, nil
}

// Catalog exposes the catalog for read-only listing commands.
func (a *BTApp) Catalog() bt.Database {
	return a.db
}

// Fail marks the running operation as failed.
func (a *BTApp) Fail() {
	a.op.Fail()
}

// beginMutation marks the operation as changing the catalog and refuses to
// change a catalog older than the one already published for this host.
func (a *BTApp) beginMutation() error {
	a.op.Mutating = true
	if a.vault == nil {
		return nil
	}
	remote, err := a.vault.GetMetadataVersion(a.cfg.HostID, bt.CatalogMetadataName)
	if err != nil {
		return fmt.Errorf("checking published catalog version: %w", err)
	}
	var local int64
	latest, err := a.db.LatestCollection()
	if err != nil {
		return fmt.Errorf("checking local catalog version: %w", err)
	}
	if latest != nil {
		local = latest.ID
	}
	if remote > local {
		return fmt.Errorf("local catalog is behind the published one (local=%d, published=%d): fetch it first", local, remote)
	}
	return nil
}

// CheckCatalog verifies the catalog schema is current.
func (a *BTApp) CheckCatalog() error {
	return a.db.CheckMigrations()
}

// IdentifyFiles hashes rawPath (or the files below it) and reports what the
// catalog knows about each.
func (a *BTApp) IdentifyFiles(ctx context.Context, rawPath string, recursive bool, fn func(*bt.Identification) error) error {
	return a.service.IdentifyFiles(ctx, rawPath, recursive, fn)
}

// TrackFiles adds untracked files under rawPath to the catalog.
func (a *BTApp) TrackFiles(rawPath string, recursive bool) (int, error) {
	if err := a.beginMutation(); err != nil {
		return 0, err
	}
	return a.service.TrackFiles(rawPath, recursive)
}

// SetProperty stores a string property.
func (a *BTApp) SetProperty(name, value string) error {
	if err := a.beginMutation(); err != nil {
		return err
	}
	return a.db.SetStringProperty(name, value)
}

// SyncVault mirrors the vault inventory into the catalog.
func (a *BTApp) SyncVault(ctx context.Context) (*bt.SyncResult, error) {
	if err := a.beginMutation(); err != nil {
		return nil, err
	}
	return a.service.SyncVaultInventory(ctx)
}

// PublishCatalog seals the catalog into the vault.
func (a *BTApp) PublishCatalog() (int64, error) {
	if !a.encryptor.IsConfigured() {
		return 0, fmt.Errorf("encryption keys not configured: run `bt config init`")
	}
	return a.service.PublishCatalog()
}

// FetchCatalog restores the published catalog to destPath.
func (a *BTApp) FetchCatalog(passphrase, destPath string) (int64, error) {
	return a.service.FetchCatalog(passphrase, destPath)
}

// Close records a catalog-mutating operation, then closes the catalog and
// the log file.
func (a *BTApp) Close() error {
	var errs []error
	if a.op.Mutating {
		if err := a.op.record(a.db, a.clock.Now()); err != nil {
			errs = append(errs, fmt.Errorf("recording operation: %w", err))
		}
		a.logger.Info("operation finished", "operation", a.op.Name, "status", a.op.Status)
		a.op.Mutating = false
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing catalog: %w", err))
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
