package db

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var errDBUnavailable = errors.New("db unavailable")

func marshalConfig(cfg map[string]string) ([]byte, error) {
	if len(cfg) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(cfg)
}

func unmarshalConfig(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Work days are stored as a comma separated list of weekday numbers,
// 0 = Sunday through 6 = Saturday.
func weekdaysToCSV(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func weekdaysFromCSV(csv string) []time.Weekday {
	if csv == "" {
		return nil
	}
	var out []time.Weekday
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		out = append(out, time.Weekday(n))
	}
	return out
}

func stringPtrIfNotEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
