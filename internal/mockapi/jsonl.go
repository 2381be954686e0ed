package mockapi

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// readJSONL returns each non-empty line of path that is valid JSON.
// Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL replaces path with one record per line. The file is written to
// a temp file, synced and renamed into place.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Export writes every trip, with stops and routes, to path as JSON lines.
// It returns the number of trips written.
func (s *Store) Export(ctx context.Context, path string) (int, error) {
	var records []json.RawMessage
	err := s.read(func() error {
		trips, err := loadAllTrips(ctx, s.db)
		if err != nil {
			return err
		}
		for _, t := range trips {
			b, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("encoding trip %s: %w", t.ID, err)
			}
			records = append(records, b)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Import loads trips written by Export. Trips whose id already exists are
// skipped. Stop ids are reassigned and routes follow their stops. It returns
// the number of trips added.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	added := 0
	err = s.tx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			var t types.Trip
			if err := json.Unmarshal(rec, &t); err != nil || t.ID == "" || t.Name == "" {
				s.logger.Warn("skipping malformed trip record", "path", path)
				continue
			}
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips WHERE trip_id = ?", t.ID).
				Scan(&exists); err != nil {
				return fmt.Errorf("checking trip %s: %w", t.ID, err)
			}
			if exists > 0 {
				continue
			}
			if err := importTrip(ctx, tx, &t); err != nil {
				return fmt.Errorf("importing trip %s: %w", t.ID, err)
			}
			if _, err := s.finishLoadLocked(ctx, tx, t.ID); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func importTrip(ctx context.Context, tx *sql.Tx, t *types.Trip) error {
	if !t.Category.Valid() {
		t.Category = types.CategoryCustom
	}
	if t.Visibility == "" {
		t.Visibility = types.VisibilityPrivate
	}
	if err := insertTrip(ctx, tx, t); err != nil {
		return err
	}
	ids := map[int64]int64{}
	for i, st := range t.OrderedStops() {
		old := st.ID
		st.TripID = t.ID
		st.Order = i
		id, err := insertStop(ctx, tx, &st)
		if err != nil {
			return err
		}
		ids[old] = id
	}
	for _, r := range t.Routes {
		from, okFrom := ids[r.FromStopID]
		to, okTo := ids[r.ToStopID]
		if !okFrom || !okTo {
			continue
		}
		r.FromStopID, r.ToStopID = from, to
		if r.ID == "" {
			r.ID = newID()
		}
		if err := insertRoute(ctx, tx, t.ID, &r); err != nil {
			return err
		}
	}
	return nil
}
