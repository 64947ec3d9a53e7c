package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"tracewave/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Index implements ports.AnnotationIndex using SQLite
type Index struct {
	db          *sql.DB
	projectRoot string
	dbPath      string
}

// Ensure Index implements AnnotationIndex
var _ ports.AnnotationIndex = (*Index)(nil)

// NewIndex creates a new SQLite index
func NewIndex() *Index {
	return &Index{}
}

// Open initializes the index for the given project root
func (idx *Index) Open(projectRoot string) error {
	// the database is keyed by the absolute root
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	projectRoot = abs

	idx.projectRoot = projectRoot
	idx.dbPath = databasePath(projectRoot)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS objects (
			video_id TEXT NOT NULL,
			frame_idx INTEGER NOT NULL,
			obj_id INTEGER NOT NULL,
			class TEXT NOT NULL DEFAULT '',
			points INTEGER NOT NULL,
			has_box INTEGER NOT NULL,
			has_polygon INTEGER NOT NULL,
			PRIMARY KEY (video_id, frame_idx, obj_id)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_objects_class ON objects(class);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if err := idx.updateMeta(); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Path returns the database file location
func (idx *Index) Path() string {
	return idx.dbPath
}

// databasePath returns the path for the SQLite database
func databasePath(projectRoot string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tracewave", hashProjectPath(projectRoot)+".db")
}

// hashProjectPath returns a short hash of the project root
func hashProjectPath(projectRoot string) string {
	h := sha256.Sum256([]byte(projectRoot))
	return hex.EncodeToString(h[:8])
}

func (idx *Index) updateMeta() error {
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
		INSERT OR REPLACE INTO meta (key, value) VALUES ('project_path_hash', ?);
	`, schemaVersion, hashProjectPath(idx.projectRoot))
	return err
}

// VideoStats returns per-video counts ordered by video id
func (idx *Index) VideoStats() ([]ports.VideoStats, error) {
	rows, err := idx.db.Query(`
		SELECT video_id, COUNT(DISTINCT frame_idx), COUNT(*),
			SUM(points), SUM(has_box), SUM(has_polygon)
		FROM objects
		GROUP BY video_id
		ORDER BY video_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ports.VideoStats
	for rows.Next() {
		var s ports.VideoStats
		if err := rows.Scan(&s.VideoID, &s.AnnotatedFrames, &s.Objects, &s.Points, &s.Boxes, &s.Polygons); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// ClassCounts returns the number of objects per non-empty class
func (idx *Index) ClassCounts() ([]ports.ClassCount, error) {
	rows, err := idx.db.Query(`
		SELECT class, COUNT(*)
		FROM objects
		WHERE class != ''
		GROUP BY class
		ORDER BY class
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ports.ClassCount
	for rows.Next() {
		var c ports.ClassCount
		if err := rows.Scan(&c.Class, &c.Objects); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// FramesWithClass lists the frames holding at least one object of class
func (idx *Index) FramesWithClass(class string) ([]ports.FrameRef, error) {
	rows, err := idx.db.Query(`
		SELECT DISTINCT video_id, frame_idx
		FROM objects WHERE class = ?
		ORDER BY video_id, frame_idx
	`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ports.FrameRef
	for rows.Next() {
		var r ports.FrameRef
		if err := rows.Scan(&r.VideoID, &r.FrameIdx); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}

	return refs, rows.Err()
}

// BeginTx starts a new transaction
func (idx *Index) BeginTx() (ports.IndexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}
