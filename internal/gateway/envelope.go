package gateway

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/service"
)

// Envelope is the inbound wire frame: a named event, an optional request
// correlation id echoed back in the ack, and the action payload.
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Response is the outbound frame used for both direct acknowledgements and
// room broadcasts. Done is the single success signal the UI keys off.
type Response struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Done  bool   `json:"done"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// idRequest is the payload of getById and delete.
type idRequest struct {
	ID string `json:"id"`
}

// listRequest is the payload of getAll. Filter values accept a single
// string or a string array.
type listRequest struct {
	Page    int64          `json:"page"`
	Limit   int64          `json:"limit"`
	Search  string         `json:"search"`
	Filters map[string]any `json:"filters"`
	From    string         `json:"from"`
	To      string         `json:"to"`
	SortBy  string         `json:"sortBy"`
	SortAsc bool           `json:"sortAsc"`
}

func (r listRequest) toFilters() service.ListFilters {
	out := service.ListFilters{
		Page:    r.Page,
		Limit:   r.Limit,
		Search:  r.Search,
		SortBy:  r.SortBy,
		SortAsc: r.SortAsc,
	}

	if len(r.Filters) > 0 {
		out.Fields = map[string][]string{}
		for field, raw := range r.Filters {
			switch v := raw.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					out.Fields[field] = []string{s}
				}
			case []any:
				var values []string
				for _, el := range v {
					if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
						values = append(values, strings.TrimSpace(s))
					}
				}
				if len(values) > 0 {
					out.Fields[field] = values
				}
			}
		}
	}

	if t, ok := parseTime(r.From); ok {
		out.From = &t
	}
	if t, ok := parseTime(r.To); ok {
		out.To = &t
	}
	return out
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// decodeUpdate accepts either {id, patch:{...}} or a flat merge where the
// patch fields ride alongside the id.
func decodeUpdate(data json.RawMessage) (string, domain.Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", nil, err
	}
	id, _ := raw["id"].(string)

	if nested, ok := raw["patch"].(map[string]any); ok {
		return id, domain.Document(nested), nil
	}
	delete(raw, "id")
	return id, domain.Document(raw), nil
}
