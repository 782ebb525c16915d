package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"whereabouts/internal/checkin"
	"whereabouts/internal/prompt"
)

type fakeDigests struct {
	digest checkin.Digest
	err    error
}

func (f fakeDigests) Build(context.Context, string) (checkin.Digest, error) {
	return f.digest, f.err
}

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
}

func (f *fakeCompleter) Invoke(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

var promptCfg = prompt.Config{Roster: []string{"Hugo", "Vasiliki"}, Location: time.UTC}

func fixedClock() time.Time { return time.Date(2023, time.April, 4, 13, 30, 0, 0, time.UTC) }

func TestRun(t *testing.T) {
	comp := &fakeCompleter{reply: "Hugo came back at 13:00."}
	digests := fakeDigests{digest: checkin.Digest{Lines: []string{"[09:05] Hugo: In today"}}}

	res, err := New(digests, comp, "C1", promptCfg, zaptest.NewLogger(t)).WithClock(fixedClock).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Reply != "Hugo came back at 13:00." || !res.DigestAvailable || res.CheckinCount != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if !strings.Contains(comp.system, "[09:05] Hugo: In today") {
		t.Errorf("digest missing from system prompt: %s", comp.system)
	}
	if comp.user != "[13:30] Hi, I'm looking for Hugo." {
		t.Errorf("user prompt = %q", comp.user)
	}
}

func TestRunDigestUnavailable(t *testing.T) {
	comp := &fakeCompleter{reply: "I don't know."}
	digests := fakeDigests{err: fmt.Errorf("%w: not_authed", checkin.ErrUnavailable)}

	res, err := New(digests, comp, "C1", promptCfg, zaptest.NewLogger(t)).WithClock(fixedClock).Run(context.Background())
	if err != nil {
		t.Fatalf("Run should tolerate a missing digest: %v", err)
	}
	if res.DigestAvailable {
		t.Error("DigestAvailable should be false")
	}
	if comp.system == "" {
		t.Error("completion should still be invoked")
	}
}

func TestRunEmptyDigestIsAvailable(t *testing.T) {
	res, err := New(fakeDigests{}, &fakeCompleter{reply: "ok"}, "C1", promptCfg, zaptest.NewLogger(t)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.DigestAvailable || res.CheckinCount != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunCompletionFailure(t *testing.T) {
	upstream := errors.New("401 invalid api key")
	_, err := New(fakeDigests{}, &fakeCompleter{err: upstream}, "C1", promptCfg, zaptest.NewLogger(t)).Run(context.Background())
	if !errors.Is(err, upstream) {
		t.Fatalf("expected completion error, got %v", err)
	}
}

func TestRunUnexpectedDigestError(t *testing.T) {
	comp := &fakeCompleter{}
	_, err := New(fakeDigests{err: context.Canceled}, comp, "C1", promptCfg, zaptest.NewLogger(t)).Run(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if comp.system != "" {
		t.Error("completion must not run after an unexpected digest error")
	}
}
