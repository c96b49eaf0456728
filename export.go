package portalsync

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

const backupVersion = "1.0"

// Backup is the portable JSON snapshot of the local cache: every collection,
// in stored order.
type Backup struct {
	Version     string                     `json:"version"`
	ExportedAt  time.Time                  `json:"exported_at"`
	Collections map[Kind][]json.RawMessage `json:"collections"`
}

// Export snapshots every collection into a Backup.
func (p *Portal) Export() (*Backup, error) {
	backup := &Backup{
		Version:     backupVersion,
		ExportedAt:  time.Now().UTC(),
		Collections: make(map[Kind][]json.RawMessage, len(Kinds())),
	}

	for _, kind := range Kinds() {
		records, err := p.store.ReadCollection(kind)
		if err != nil {
			return nil, err
		}
		docs := make([]json.RawMessage, len(records))
		for i, rec := range records {
			docs[i] = rec.Data
		}
		backup.Collections[kind] = docs
	}
	return backup, nil
}

// ExportTo writes the backup as indented JSON.
func (p *Portal) ExportTo(w io.Writer) error {
	backup, err := p.Export()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(backup)
}

// ExportToFile writes the backup to a file.
func (p *Portal) ExportToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	if err := p.ExportTo(f); err != nil {
		return err
	}
	return f.Close()
}
