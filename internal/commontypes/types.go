package commontypes

import (
	"fmt"
	"strings"
	"time"
)

// Message represents a single Slack channel message.
type Message struct {
	ID        string
	User      string
	Timestamp string // raw Slack ts, e.g. "1680593527.515319"
	PostedAt  time.Time
	Text      string
}

// Member is one person on the office roster.
type Member struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// Roster is the ordered list of known office members.
type Roster []Member

// ParseRoster parses "ID=Name,ID=Name" into a Roster, keeping input order.
func ParseRoster(s string) (Roster, error) {
	var roster Roster
	seen := make(map[string]bool)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, name, ok := strings.Cut(pair, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, fmt.Errorf("invalid roster entry %q, want ID=Name", pair)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate roster id %q", id)
		}
		seen[id] = true
		roster = append(roster, Member{ID: id, Name: name})
	}
	return roster, nil
}

// Names returns the display names in roster order.
func (r Roster) Names() []string {
	names := make([]string, 0, len(r))
	for _, m := range r {
		names = append(names, m.Name)
	}
	return names
}

// Directory builds the id -> name lookup for this roster.
func (r Roster) Directory() UserDirectory {
	dir := make(UserDirectory, len(r))
	for _, m := range r {
		dir[m.ID] = m.Name
	}
	return dir
}

// UserDirectory maps Slack user IDs to display names.
type UserDirectory map[string]string

// Lookup returns the display name for a user ID.
func (d UserDirectory) Lookup(userID string) (string, bool) {
	name, ok := d[userID]
	return name, ok
}
