// Package legacy reads the flat json-server data file the first version of the tracker wrote
// and turns its records into models.
package legacy

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// NotAvailable is how the legacy data marks a timestamp that was never set
const NotAvailable = "N/A"

// Legacy timestamps were written with the browser's en-GB locale
var timestampLayouts = []string{
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// Record is one legacy object with its keys in snake_case
type Record map[string]interface{}

// Dataset is the content of a legacy data file
type Dataset struct {
	Jobs     []Record
	Users    []Record
	Machines []Record
}

// Load reads a legacy data file. Keys are canonicalized, so workOrder and work_order are the same field.
func Load(r io.Reader) (*Dataset, error) {
	var raw map[string][]map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode legacy data: %w", err)
	}

	ds := &Dataset{}
	for key, records := range raw {
		canon := make([]Record, 0, len(records))
		for _, rec := range records {
			canon = append(canon, canonicalize(rec))
		}
		switch canonicalKey(key) {
		case "jobs":
			ds.Jobs = canon
		case "users":
			ds.Users = canon
		case "machines":
			ds.Machines = canon
		}
	}
	return ds, nil
}

// canonicalKey converts camelCase to snake_case and leaves snake_case alone.
// Runs of capitals are one word, so machineID becomes machine_id.
func canonicalKey(key string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range key {
		if unicode.IsUpper(r) {
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func canonicalize(in map[string]interface{}) Record {
	out := make(Record, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]interface{}); ok {
			v = map[string]interface{}(canonicalize(nested))
		}
		out[canonicalKey(k)] = v
	}
	return out
}

// String returns the field as text. Numbers are formatted without exponent.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Float returns the field as a number. Missing and blank fields are 0.
func (r Record) Float(key string) (float64, error) {
	switch v := r[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: not a number: %q", key, v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%s: unexpected type %T", key, r[key])
}

// Int returns the field as a whole number
func (r Record) Int(key string) (int, error) {
	f, err := r.Float(key)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s: not a whole number: %v", key, f)
	}
	return int(f), nil
}

// Bool accepts JSON booleans and the strings checkboxes were saved as
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}

// Time parses a legacy timestamp in loc and returns it in UTC. Blank and N/A are nil.
func (r Record) Time(key string, loc *time.Location) (*time.Time, error) {
	t, err := ParseTimestamp(r.String(key), loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

// ParseTimestamp accepts the en-GB display format the legacy front end stored, plain dates and RFC 3339
func ParseTimestamp(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, NotAvailable) {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, time.UTC); err == nil {
		return &t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", raw)
}

// nested returns the object stored under key, or r itself when the fields were stored flat
func (r Record) nested(key string) Record {
	if m, ok := r[key].(map[string]interface{}); ok {
		return Record(m)
	}
	return r
}

// parseStatus reads a legacy status. The worker-facing "Completed" means awaiting approval.
func parseStatus(raw string) (models.JobStatus, error) {
	switch raw {
	case "":
		return models.JobStatusPending, nil
	case models.ContractorStatusCompleted:
		return models.JobStatusCompletedPendingApproval, nil
	}
	return models.ParseJobStatus(raw)
}
