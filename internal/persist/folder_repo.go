package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// FolderRepo stores the folder registry of each world. Entities are not
// persisted here; only the folder set survives a restart.
type FolderRepo struct {
	db *DB
}

func NewFolderRepo(db *DB) *FolderRepo {
	return &FolderRepo{db: db}
}

// Load returns the saved folder paths of world, shallowest first.
func (r *FolderRepo) Load(ctx context.Context, world string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT path FROM world_folders WHERE world = $1 ORDER BY depth, path`, world)
	if err != nil {
		return nil, fmt.Errorf("load folders %s: %w", world, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load folders %s: %w", world, err)
	}
	return paths, nil
}

// Save replaces the stored folder set of world with paths in one
// transaction. A set identical to the stored one is left alone.
func (r *FolderRepo) Save(ctx context.Context, world string, paths []string) error {
	digest := FolderDigest(paths)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("folders begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored []byte
	err = tx.QueryRow(ctx,
		`SELECT digest FROM world_folder_digests WHERE world = $1 FOR UPDATE`, world,
	).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return fmt.Errorf("folder digest %s: %w", world, err)
	case bytes.Equal(stored, digest):
		r.db.log.Debug("folders unchanged", zap.String("world", world))
		return nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM world_folders WHERE world = $1`, world); err != nil {
		return fmt.Errorf("clear folders %s: %w", world, err)
	}
	for _, p := range paths {
		if _, err := tx.Exec(ctx,
			`INSERT INTO world_folders (world, path, depth) VALUES ($1, $2, $3)`,
			world, p, strings.Count(p, "/")+1,
		); err != nil {
			return fmt.Errorf("insert folder %q: %w", p, err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO world_folder_digests (world, digest) VALUES ($1, $2)
		 ON CONFLICT (world) DO UPDATE SET digest = EXCLUDED.digest, updated_at = now()`,
		world, digest,
	); err != nil {
		return fmt.Errorf("store folder digest %s: %w", world, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("folders commit: %w", err)
	}
	r.db.log.Debug("folders saved", zap.String("world", world), zap.Int("paths", len(paths)))
	return nil
}

// FolderDigest fingerprints a folder set independently of its order.
func FolderDigest(paths []string) []byte {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sum := blake2b.Sum256([]byte(strings.Join(sorted, "\n")))
	return sum[:]
}
