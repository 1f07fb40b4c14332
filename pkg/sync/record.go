package sync

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/sidkik/sitesync/pkg/errors"
	"github.com/sidkik/sitesync/pkg/site"
	"github.com/sidkik/sitesync/pkg/store"
)

// DateFormat is the format of Record.Date.
const DateFormat = time.RFC3339

// Record is the remote copy of a site's data. The zero value is the record
// of an untracked site, and marshals to `{}`.
type Record struct {
	Tracked bool          `json:"tracked,omitempty"`
	Date    string        `json:"date,omitempty"`
	Data    site.Snapshot `json:"data,omitempty"`
}

// NewRecord returns a tracked record holding `data`, dated `now`.
func NewRecord(data site.Snapshot, now time.Time) Record {
	return Record{
		Tracked: true,
		Date:    now.UTC().Format(DateFormat),
		Data:    data,
	}
}

// SyncedAt parses the record's date. The second return value is false if
// the date is missing or was written in a different format.
func (r Record) SyncedAt() (time.Time, bool) {
	if r.Date == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(DateFormat, r.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RemoteData returns the data to reconcile against. Untracked records have
// no data, even if an older tool left some behind.
func (r Record) RemoteData() site.Snapshot {
	if !r.Tracked || r.Data == nil {
		return site.Snapshot{}
	}
	return r.Data
}

// Marshal encodes the record for the remote store.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// ParseRecord decodes a record read from the remote store. Values in `data`
// that aren't strings are kept as their JSON text, like ParseSnapshot.
func ParseRecord(b []byte) (Record, error) {
	if !gjson.ValidBytes(b) {
		return Record{}, errors.New("invalid JSON")
	}

	parsed := gjson.ParseBytes(b)
	if !parsed.IsObject() {
		return Record{}, errors.New("expected a JSON object, got %s", parsed.Type)
	}

	var record Record
	record.Tracked = parsed.Get("tracked").Bool()
	record.Date = parsed.Get("date").String()

	if data := parsed.Get("data"); data.Exists() && data.Type != gjson.Null {
		snapshot, err := site.ParseSnapshot([]byte(data.Raw))
		if err != nil {
			return Record{}, errors.WithContext(err, "parse data")
		}
		record.Data = snapshot
	}
	return record, nil
}

// loadRecord reads the record for `origin`. A missing record is the same as
// an untracked one.
func loadRecord(ctx context.Context, remote store.Store, origin string) (Record, error) {
	b, ok, err := remote.Get(ctx, origin)
	if err != nil {
		return Record{}, errors.WithContext(err, "get remote record")
	}

	if !ok {
		log.WithField("origin", origin).Debug("No remote record")
		return Record{}, nil
	}

	record, err := ParseRecord(b)
	if err != nil {
		return Record{}, errors.WithContext(err, "decode record")
	}

	if record.Tracked && record.Date != "" {
		if _, ok := record.SyncedAt(); !ok {
			log.WithFields(log.Fields{
				"origin": origin,
				"date":   record.Date,
			}).Warn("Remote record has an unrecognized sync date")
		}
	}
	return record, nil
}

func saveRecord(ctx context.Context, remote store.Store, origin string, record Record) error {
	b, err := record.Marshal()
	if err != nil {
		return errors.WithContext(err, "encode record")
	}

	if err := remote.Set(ctx, origin, b); err != nil {
		return errors.WithContext(err, "set remote record")
	}

	log.WithFields(log.Fields{
		"origin":  origin,
		"tracked": record.Tracked,
		"keys":    len(record.Data),
	}).Debug("Wrote remote record")
	return nil
}
