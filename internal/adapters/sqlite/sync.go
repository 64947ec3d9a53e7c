package sqlite

import (
	"fmt"

	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// Sync replaces the whole index with the given records in one transaction.
// Videos no longer present in records are dropped.
func (idx *Index) Sync(records []domain.Record) (*ports.SyncStats, error) {
	indexed, err := idx.indexedVideos()
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed videos: %w", err)
	}

	tx, err := idx.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync: %w", err)
	}

	videos := make(map[string]bool)
	for _, rec := range records {
		videos[rec.VideoID] = true
	}
	for id := range videos {
		indexed[id] = true
	}
	for id := range indexed {
		if err := tx.DeleteVideo(id); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to clear video %s: %w", id, err)
		}
	}

	stats := &ports.SyncStats{Videos: len(videos)}
	for _, rec := range records {
		if err := tx.InsertObject(rec); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to index %s frame %d object %d: %w", rec.VideoID, rec.FrameIdx, rec.ObjID, err)
		}
		stats.Objects++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}
	return stats, nil
}

func (idx *Index) indexedVideos() (map[string]bool, error) {
	rows, err := idx.db.Query(`SELECT DISTINCT video_id FROM objects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
