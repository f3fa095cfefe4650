package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an in-memory Versioner that logs each call.
type recorder struct {
	calls      []string
	failStage  map[string]bool
	failCommit map[string]bool
	failPush   bool
}

func (r *recorder) Stage(_ context.Context, path string) error {
	r.calls = append(r.calls, "stage "+path)
	if r.failStage[path] {
		return errors.New("stage failed")
	}
	return nil
}

func (r *recorder) Remove(_ context.Context, path string) error {
	r.calls = append(r.calls, "remove "+path)
	return nil
}

func (r *recorder) Commit(_ context.Context, msg string) error {
	r.calls = append(r.calls, "commit "+msg)
	if r.failCommit[msg] {
		return errors.New("commit failed")
	}
	return nil
}

func (r *recorder) Publish(context.Context) error {
	r.calls = append(r.calls, "publish")
	if r.failPush {
		return errors.New("push rejected")
	}
	return nil
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "sync(Surge): a.sgmodule", Message(Record{Path: "out/Surge/a.sgmodule", Kind: Created, Variant: "Surge"}))
	assert.Equal(t, "sync: a.js", Message(Record{Path: "out/a.js", Kind: Updated}))
	assert.Equal(t, "remove(Loon): b.plugin", Message(Record{Path: "out/Loon/b.plugin", Kind: Deleted, Variant: "Loon"}))
}

func TestPublish_OrderAndSinglePublish(t *testing.T) {
	records := []Record{
		{Path: "out/v/a.js", Kind: Created, Variant: "v"},
		{Path: "out/v/b.js", Kind: Updated, Variant: "v"},
		{Path: "out/v/c.js", Kind: Deleted, Variant: "v"},
	}
	rec := &recorder{}

	report := Publish(context.Background(), records, rec, zerolog.Nop())

	want := []string{
		"stage out/v/a.js", "commit sync(v): a.js",
		"stage out/v/b.js", "commit sync(v): b.js",
		"remove out/v/c.js", "commit remove(v): c.js",
		"publish",
	}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Errorf("versioner calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, report.Committed)
	assert.True(t, report.Published)
	assert.NoError(t, report.Err)
}

func TestPublish_EmptyLedgerDoesNotPublish(t *testing.T) {
	rec := &recorder{}
	report := Publish(context.Background(), nil, rec, zerolog.Nop())
	assert.Empty(t, rec.calls)
	assert.False(t, report.Published)
	assert.NoError(t, report.Err)
}

func TestPublish_FailuresDoNotBlockLaterRecords(t *testing.T) {
	records := []Record{
		{Path: "out/v/a.js", Kind: Created, Variant: "v"},
		{Path: "out/v/b.js", Kind: Created, Variant: "v"},
		{Path: "out/v/c.js", Kind: Created, Variant: "v"},
	}
	rec := &recorder{
		failStage:  map[string]bool{"out/v/a.js": true},
		failCommit: map[string]bool{"sync(v): b.js": true},
		failPush:   true,
	}

	report := Publish(context.Background(), records, rec, zerolog.Nop())

	assert.Equal(t, []string{
		"stage out/v/a.js",
		"stage out/v/b.js", "commit sync(v): b.js",
		"stage out/v/c.js", "commit sync(v): c.js",
		"publish",
	}, rec.calls)
	assert.Equal(t, 1, report.Committed)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.Published)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "push rejected")
}

func TestLedger_AppendOnlyCopy(t *testing.T) {
	var l Ledger
	l.Append(Record{Path: "a", Kind: Created})
	got := l.Records()
	got[0].Path = "mutated"
	assert.Equal(t, "a", l.Records()[0].Path)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
