package portalsync

import "time"

// ClientRepo provides typed access to the client collection.
type ClientRepo struct {
	repoDeps
}

// ClientProfilePatch is the form-editable subset of a client record. Nil
// fields are left untouched, so a profile edit cannot clobber the AI
// configuration or costing data it never loaded.
type ClientProfilePatch struct {
	Name       *string
	Logo       *string
	ReportURLs map[ReportSection]string
	Billing    *BillingData
	IsActive   *bool
}

// All returns every cached client in insertion order.
func (r *ClientRepo) All() ([]Client, error) {
	records, err := r.store.ReadCollection(KindClients)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Client](records)
}

// ByID returns the client with the given identity, along with the last
// local write time for use as an optimistic concurrency base.
func (r *ClientRepo) ByID(id string) (*Client, time.Time, error) {
	rec, err := r.store.Get(KindClients, id)
	if err != nil {
		return nil, time.Time{}, err
	}
	client, err := decodeRecord[Client](rec)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &client, rec.UpdatedAt, nil
}

// Save validates and persists the client, minting an identity on first save
// and filling any missing report-section slots.
func (r *ClientRepo) Save(client Client) (*Client, error) {
	if err := client.Validate(); err != nil {
		return nil, err
	}

	if client.ID == "" {
		client.ID = newID()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	if client.ReportURLs == nil {
		client.ReportURLs = make(map[ReportSection]string, len(ReportSections()))
	}
	for _, section := range ReportSections() {
		if _, ok := client.ReportURLs[section]; !ok {
			client.ReportURLs[section] = ""
		}
	}

	rec, err := encodeRecord(client.ID, &client)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindClients, rec); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateProfile merges a form edit into the latest stored client record and
// saves the whole record back. The base time must be the write time returned
// by ByID when the form was loaded; a mismatch fails with ErrStaleRecord and
// leaves the stored record unchanged.
func (r *ClientRepo) UpdateProfile(id string, patch ClientProfilePatch, base time.Time) (*Client, error) {
	client, _, err := r.ByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		client.Name = *patch.Name
	}
	if patch.Logo != nil {
		client.Logo = *patch.Logo
	}
	for section, url := range patch.ReportURLs {
		client.ReportURLs[section] = url
	}
	if patch.Billing != nil {
		client.Billing = patch.Billing
	}
	if patch.IsActive != nil {
		client.IsActive = *patch.IsActive
	}

	if err := client.Validate(); err != nil {
		return nil, err
	}

	rec, err := encodeRecord(client.ID, client)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecordGuarded(KindClients, rec, base); err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateAIConfig replaces the client's AI analyst configuration.
func (r *ClientRepo) UpdateAIConfig(id string, cfg AIConfig) (*Client, error) {
	return r.updateInPlace(id, func(client *Client) {
		client.AIConfig = &cfg
	})
}

// UpdateCostingData replaces the client's profitability costing data.
func (r *ClientRepo) UpdateCostingData(id string, data CostingData) (*Client, error) {
	return r.updateInPlace(id, func(client *Client) {
		client.CostingData = &data
	})
}

func (r *ClientRepo) updateInPlace(id string, apply func(*Client)) (*Client, error) {
	client, _, err := r.ByID(id)
	if err != nil {
		return nil, err
	}
	apply(client)

	rec, err := encodeRecord(client.ID, client)
	if err != nil {
		return nil, err
	}
	if err := r.saveRecord(KindClients, rec); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete removes the client from the cache and schedules the remote delete.
func (r *ClientRepo) Delete(id string) error {
	return r.deleteRecord(KindClients, id)
}
