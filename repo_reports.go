package portalsync

import (
	"sort"
	"time"
)

// ReportRepo provides typed access to the AI-report collection.
type ReportRepo struct {
	repoDeps
}

// All returns AI reports, optionally filtered to one client, most recent
// first.
func (r *ReportRepo) All(clientID string) ([]AIReport, error) {
	records, err := r.store.ReadCollection(KindAIReports)
	if err != nil {
		return nil, err
	}
	reports, err := decodeCollection[AIReport](records)
	if err != nil {
		return nil, err
	}

	if clientID != "" {
		filtered := reports[:0]
		for _, rep := range reports {
			if rep.ClientID == clientID {
				filtered = append(filtered, rep)
			}
		}
		reports = filtered
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Unread returns the count of reports the client has not yet read.
func (r *ReportRepo) Unread(clientID string) (int, error) {
	reports, err := r.All(clientID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, rep := range reports {
		if !rep.IsReadByClient {
			count++
		}
	}
	return count, nil
}

// Save validates and persists the report.
func (r *ReportRepo) Save(report AIReport) (*AIReport, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}
	if report.ID == "" {
		report.ID = newID()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	rec, err := encodeRecord(report.ID, &report)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindAIReports, rec); err != nil {
		return nil, err
	}
	return &report, nil
}

// MarkAllRead flips every unread report of the client to read and mirrors
// the whole batch in one remote call. The read flag never transitions back,
// so already-read reports are untouched. Returns the number of reports
// updated.
func (r *ReportRepo) MarkAllRead(clientID string) (int, error) {
	reports, err := r.All(clientID)
	if err != nil {
		return 0, err
	}

	updated := []RawRecord{}
	for _, rep := range reports {
		if rep.IsReadByClient {
			continue
		}
		rep.IsReadByClient = true
		rec, err := encodeRecord(rep.ID, &rep)
		if err != nil {
			return 0, err
		}
		updated = append(updated, rec)
	}

	if err := r.saveRecordBatch(KindAIReports, updated); err != nil {
		return 0, err
	}
	return len(updated), nil
}

// Delete removes the report from the cache and schedules the remote delete.
func (r *ReportRepo) Delete(id string) error {
	return r.deleteRecord(KindAIReports, id)
}
