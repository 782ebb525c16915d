package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

// DefaultEntryLog is the building entry log used when no log file is configured.
const DefaultEntryLog = `[09:10] Vasiliki entered the office.
[09:15] Hugo entered the office.
[12:00] Hugo left the office.
[13:00] Hugo entered the office.`

// DefaultQuery is what the visitor at the front desk asks.
const DefaultQuery = "Hi, I'm looking for Hugo."

var systemTemplate = template.Must(template.New("system").Parse(`You are an AI assistant helping people who enter this office figure out where the people working here are.
The people working in this Office are: {{.Roster}}.

This morning the people working today checked in online on Slack with what they are doing:
{{.Checkins}}

The following is a log of when people entered the office building today:
{{.EntryLog}}
End of log.
`))

// Config is the static office data that goes into every prompt.
type Config struct {
	Roster   []string
	EntryLog string
	Query    string
	Location *time.Location
}

// Prompts is the system/user pair sent to the model.
type Prompts struct {
	System string
	User   string
}

// Compose builds the prompts from the check-in digest and the current time.
// An empty digest is placed verbatim.
func Compose(cfg Config, digest string, now time.Time) Prompts {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	entryLog := cfg.EntryLog
	if entryLog == "" {
		entryLog = DefaultEntryLog
	}
	query := cfg.Query
	if query == "" {
		query = DefaultQuery
	}

	data := struct {
		Roster   string
		Checkins string
		EntryLog string
	}{
		Roster:   strings.Join(cfg.Roster, ", "),
		Checkins: digest,
		EntryLog: strings.TrimRight(entryLog, "\n"),
	}

	var buf bytes.Buffer
	// Only string fields are rendered, so Execute cannot fail on a bytes.Buffer.
	_ = systemTemplate.Execute(&buf, data)

	return Prompts{
		System: buf.String(),
		User:   fmt.Sprintf("[%s] %s", now.In(loc).Format("15:04"), query),
	}
}

// LoadEntryLog reads an entry log from a file. An empty path returns
// DefaultEntryLog.
func LoadEntryLog(path string) (string, error) {
	if path == "" {
		return DefaultEntryLog, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading entry log %s: %w", path, err)
	}
	log := strings.TrimSpace(string(b))
	if log == "" {
		return "", fmt.Errorf("entry log %s is empty", path)
	}
	return log, nil
}
