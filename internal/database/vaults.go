package database

import (
	"database/sql"
	"errors"
	"fmt"

	"bt-catalog/internal/bt"
)

func scanVault(r rowScanner) (*bt.VaultRegistration, error) {
	var v bt.VaultRegistration
	if err := r.Scan(&v.ID, &v.Name, &v.Region, &v.VaultName, &v.VaultARN); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanVaultArchive(r rowScanner) (*bt.VaultArchive, error) {
	var (
		a                 bt.VaultArchive
		created, modified int64
		crc               int64
	)
	if err := r.Scan(&a.ID, &a.VaultID, &a.CloudPath, &a.RemoteID, &a.Description,
		&created, &a.Size, &crc, &modified); err != nil {
		return nil, err
	}
	a.CreationDate = fromDBTime(created)
	a.ModifiedTime = fromDBTime(modified)
	a.CRC32 = uint32(crc)
	return &a, nil
}

func (s *SQLiteDatabase) RegisterVault(v *bt.VaultRegistration) error {
	if v.Name == "" {
		return fmt.Errorf("%w: vault name is empty", bt.ErrInvalidArgument)
	}
	row, err := s.queries.queryRow(qUpsertVault, v.Name, v.Region, v.VaultName, v.VaultARN)
	if err != nil {
		return err
	}
	if err := row.Scan(&v.ID); err != nil {
		return fmt.Errorf("registering vault %s: %w", v.Name, err)
	}
	return nil
}

func (s *SQLiteDatabase) FindVaultByName(name string) (*bt.VaultRegistration, error) {
	row, err := s.queries.queryRow(qGetVaultByName, name)
	if err != nil {
		return nil, err
	}
	v, err := scanVault(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding vault %s: %w", name, err)
	}
	return v, nil
}

func (s *SQLiteDatabase) ListVaults() ([]*bt.VaultRegistration, error) {
	rows, err := s.queries.query(qListVaults)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bt.VaultRegistration
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vault: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing vaults: %w", err)
	}
	return out, nil
}

func (s *SQLiteDatabase) PutVaultArchive(a *bt.VaultArchive) error {
	if a.VaultID == 0 || a.CloudPath == "" {
		return fmt.Errorf("%w: vault archive needs a vault id and cloud path", bt.ErrInvalidArgument)
	}
	row, err := s.queries.queryRow(qUpsertVaultArchive,
		a.VaultID, a.CloudPath, a.RemoteID, a.Description, toDBTime(a.CreationDate), a.Size,
		int64(a.CRC32), toDBTime(a.ModifiedTime))
	if err != nil {
		return err
	}
	if err := row.Scan(&a.ID); err != nil {
		return fmt.Errorf("storing vault archive %s: %w", a.CloudPath, err)
	}
	return nil
}

func (s *SQLiteDatabase) FindVaultArchive(vaultID int64, cloudPath string) (*bt.VaultArchive, error) {
	row, err := s.queries.queryRow(qGetVaultArchive, vaultID, cloudPath)
	if err != nil {
		return nil, err
	}
	a, err := scanVaultArchive(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding vault archive %s: %w", cloudPath, err)
	}
	return a, nil
}

func (s *SQLiteDatabase) ListVaultArchives(vaultID int64) ([]*bt.VaultArchive, error) {
	rows, err := s.queries.query(qListVaultArchives, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bt.VaultArchive
	for rows.Next() {
		a, err := scanVaultArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vault archive: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing vault archives: %w", err)
	}
	return out, nil
}

func (s *SQLiteDatabase) DeleteVaultArchive(id int64) error {
	if _, err := s.queries.exec(qDeleteVaultArchive, oneRow, id); err != nil {
		return fmt.Errorf("deleting vault archive %d: %w", id, err)
	}
	return nil
}
