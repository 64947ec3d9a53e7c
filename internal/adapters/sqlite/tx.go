package sqlite

import (
	"database/sql"

	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// indexTx implements ports.IndexTx
type indexTx struct {
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ ports.IndexTx = (*indexTx)(nil)

// DeleteVideo removes every object of a video
func (t *indexTx) DeleteVideo(videoID string) error {
	_, err := t.tx.Exec(`DELETE FROM objects WHERE video_id = ?`, videoID)
	return err
}

// InsertObject inserts or replaces the summary of one record
func (t *indexTx) InsertObject(rec domain.Record) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO objects (video_id, frame_idx, obj_id, class, points, has_box, has_polygon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.VideoID, rec.FrameIdx, rec.ObjID, rec.Class, len(rec.Points),
		boolInt(rec.Box != nil && rec.Box.Valid()),
		boolInt(len(rec.Polygon) >= domain.MinPolygonVertices))
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
