package reconcile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptmirror/scriptmirror/internal/desired"
	"github.com/scriptmirror/scriptmirror/internal/fetch"
	"github.com/scriptmirror/scriptmirror/internal/ledger"
	"github.com/scriptmirror/scriptmirror/internal/manifest"
)

// remote is an in-memory fetcher keyed by URL. A URL listed in partial
// writes those bytes and then fails, simulating a dropped connection.
type remote struct {
	content map[string]string
	partial map[string]string
	calls   int
}

func newRemote() *remote {
	return &remote{content: map[string]string{}, partial: map[string]string{}}
}

func (r *remote) Fetch(_ context.Context, d fetch.Descriptor, w io.Writer) error {
	r.calls++
	if p, ok := r.partial[d.URL]; ok {
		io.WriteString(w, p)
		return errors.New("connection reset")
	}
	body, ok := r.content[d.URL]
	if !ok {
		return errors.New("status 404")
	}
	_, err := io.WriteString(w, body)
	return err
}

func buildSet(t *testing.T, root string, variants []desired.Variant, entries ...manifest.Entry) *desired.Set {
	t.Helper()
	plan, err := desired.Build(entries, desired.Options{OutputRoot: root, Variants: variants})
	require.NoError(t, err)
	return plan.Set
}

var oneVariant = []desired.Variant{{Tag: "V", Suffix: ".out"}}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	return files
}

func TestRun_EndToEndScenario(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	src := newRemote()
	src.content["http://x/a.js"] = "v1"
	entry := manifest.Entry{Identity: "a", Source: "http://x/a.js"}
	path := filepath.Join(root, "V", "a.out")
	ctx := context.Background()

	// First run creates the file.
	res, err := New(root, src).Run(ctx, buildSet(t, root, oneVariant, entry))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{{Path: path, Kind: ledger.Created, Variant: "V"}}, res.Ledger)
	assert.Equal(t, "v1", readFile(t, path))

	// Second run with identical bytes is a no-op.
	res, err = New(root, src).Run(ctx, buildSet(t, root, oneVariant, entry))
	require.NoError(t, err)
	assert.Empty(t, res.Ledger)
	assert.Equal(t, 1, res.Unchanged)

	// Third run picks up changed bytes.
	src.content["http://x/a.js"] = "v2"
	res, err = New(root, src).Run(ctx, buildSet(t, root, oneVariant, entry))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{{Path: path, Kind: ledger.Updated, Variant: "V"}}, res.Ledger)
	assert.Equal(t, "v2", readFile(t, path))

	// Fourth run drops the entry with clean mode on.
	res, err = New(root, src, WithClean(true)).Run(ctx, buildSet(t, root, oneVariant))
	require.NoError(t, err)
	assert.Equal(t, []ledger.Record{{Path: path, Kind: ledger.Deleted, Variant: "V"}}, res.Ledger)
	assert.NoFileExists(t, path)
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	src := newRemote()
	variants := []desired.Variant{{Tag: "loon", Suffix: ".plugin"}, {Tag: "surge", Suffix: ".sgmodule"}}
	var entries []manifest.Entry
	for _, id := range []string{"a", "b", "c"} {
		src.content["http://x/"+id+".js"] = "body " + id
		entries = append(entries, manifest.Entry{Identity: id, Source: "http://x/" + id + ".js"})
	}
	set := buildSet(t, root, variants, entries...)

	first, err := New(root, src, WithClean(true)).Run(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Created)

	second, err := New(root, src, WithClean(true)).Run(context.Background(), set)
	require.NoError(t, err)
	assert.Empty(t, second.Ledger)
	assert.Equal(t, 6, second.Unchanged)
	assert.False(t, second.Changed())
}

func TestRun_SingleByteDifferenceIsOneUpdate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "V", "a.out")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("console.log(1)"), 0644))

	src := newRemote()
	src.content["http://x/a.js"] = "console.log(2)"
	res, err := New(root, src).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)

	require.Len(t, res.Ledger, 1)
	assert.Equal(t, ledger.Updated, res.Ledger[0].Kind)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"V/a.out"}, listFiles(t, root), "no staging leftovers")
}

func TestRun_FailedFetchLeavesExistingFileUntouched(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "V", "a.out")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))

	src := newRemote()
	src.partial["http://x/a.js"] = "trunc"
	res, err := New(root, src).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)

	assert.Empty(t, res.Ledger)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Outcomes, 1)
	assert.Error(t, res.Outcomes[0].Err)
	assert.Equal(t, "original", readFile(t, path))
	assert.Equal(t, []string{"V/a.out"}, listFiles(t, root))
}

func TestRun_FailedFetchLeavesNoPartialNewFile(t *testing.T) {
	root := t.TempDir()
	src := newRemote()
	src.partial["http://x/a.js"] = "half a scr"
	src.content["http://x/b.js"] = "b"

	res, err := New(root, src).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"},
		manifest.Entry{Identity: "b", Source: "http://x/b.js"}))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "V", "a.out"))
	assert.Equal(t, []string{"V/b.out"}, listFiles(t, root))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
}

func TestRun_FailedFetchWithoutCleanKeepsOutputs(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "V", "a.out")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("kept"), 0644))

	res, err := New(root, newRemote()).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)
	assert.Empty(t, res.Ledger)
	assert.FileExists(t, path)
}

func TestRun_CleanDeletesOutputsOfArtifactWhoseFetchesAllFailed(t *testing.T) {
	root := t.TempDir()
	variants := []desired.Variant{{Tag: "loon", Suffix: ".plugin"}, {Tag: "surge", Suffix: ".sgmodule"}}
	for _, rel := range []string{"loon/a.plugin", "surge/a.sgmodule"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("old"), 0644))
	}

	// "a" is still configured, but every fetch fails.
	res, err := New(root, newRemote(), WithClean(true)).Run(context.Background(), buildSet(t, root, variants,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 2, res.Deleted)
	want := []ledger.Record{
		{Path: filepath.Join(root, "loon", "a.plugin"), Kind: ledger.Deleted, Variant: "loon"},
		{Path: filepath.Join(root, "surge", "a.sgmodule"), Kind: ledger.Deleted, Variant: "surge"},
	}
	if diff := cmp.Diff(want, res.Ledger); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, listFiles(t, root))
}

func TestRun_LedgerOrder(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"V/b.out", "V/zz.out", "V/aa.out", "orphan.txt"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("old"), 0644))
	}

	src := newRemote()
	src.content["http://x/c.js"] = "c"
	src.content["http://x/b.js"] = "new b"
	src.content["http://x/a.js"] = "a"

	res, err := New(root, src, WithClean(true)).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "c", Source: "http://x/c.js"},
		manifest.Entry{Identity: "b", Source: "http://x/b.js"},
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)

	want := []ledger.Record{
		{Path: filepath.Join(root, "V", "c.out"), Kind: ledger.Created, Variant: "V"},
		{Path: filepath.Join(root, "V", "b.out"), Kind: ledger.Updated, Variant: "V"},
		{Path: filepath.Join(root, "V", "a.out"), Kind: ledger.Created, Variant: "V"},
		{Path: filepath.Join(root, "V", "aa.out"), Kind: ledger.Deleted, Variant: "V"},
		{Path: filepath.Join(root, "V", "zz.out"), Kind: ledger.Deleted, Variant: "V"},
		{Path: filepath.Join(root, "orphan.txt"), Kind: ledger.Deleted, Variant: ""},
	}
	if diff := cmp.Diff(want, res.Ledger); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanup_SkipsDotEntriesAndRemovesStagingLeftovers(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		".git/HEAD":            "ref: refs/heads/main",
		".gitignore":           "*.tmp",
		"V/.a.out.staging-123": "stale",
		"V/stray.out":          "stray",
	}
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}

	res, err := New(root, newRemote(), WithClean(true)).Run(context.Background(), buildSet(t, root, oneVariant))
	require.NoError(t, err)

	require.Len(t, res.Ledger, 1)
	assert.Equal(t, filepath.Join(root, "V", "stray.out"), res.Ledger[0].Path)
	assert.ElementsMatch(t, []string{".git/HEAD", ".gitignore"}, listFiles(t, root))
}

func TestRun_TargetIsDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "V", "a.out"), 0755))
	src := newRemote()
	src.content["http://x/a.js"] = "a"

	res, err := New(root, src).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, src.calls, "no fetch for an unusable path")
}

func TestRun_PreservesPermissionsOnUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	root := t.TempDir()
	path := filepath.Join(root, "V", "a.out")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	src := newRemote()
	src.content["http://x/a.js"] = "new"
	_, err := New(root, src).Run(context.Background(), buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRun_CancelledContextStillCompletes(t *testing.T) {
	root := t.TempDir()
	src := newRemote()
	src.content["http://x/a.js"] = "a"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawCancel bool
	f := fetch.Func(func(ctx context.Context, d fetch.Descriptor, w io.Writer) error {
		sawCancel = ctx.Err() != nil
		return src.Fetch(ctx, d, w)
	})
	res, err := New(root, f).Run(ctx, buildSet(t, root, oneVariant,
		manifest.Entry{Identity: "a", Source: "http://x/a.js"}))
	require.NoError(t, err)
	assert.False(t, sawCancel)
	assert.Equal(t, 1, res.Created)
}

func TestRun_UnusableRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err := New(filepath.Join(file, "root"), newRemote()).Run(context.Background(), buildSet(t, "x", oneVariant))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0644))
	got, err := Fingerprint(p)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = Fingerprint(p + ".missing")
	assert.Error(t, err)
}

func TestIsStagingLeftover(t *testing.T) {
	assert.True(t, isStagingLeftover(".a.out.staging-42"))
	assert.False(t, isStagingLeftover("a.out.staging-42"))
	assert.False(t, isStagingLeftover(".gitignore"))
	assert.False(t, strings.HasPrefix(StatusFailed.String(), "unknown"))
}
