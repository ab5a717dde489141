package forge

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge"
	"appforge/marker"
)

// execSpy records external command invocations and can fail selected steps.
type execSpy struct {
	calls [][]string
	fail  map[string]error // keyed by argv[0]
}

func (s *execSpy) fn(_ context.Context, _ string, argv []string) error {
	s.calls = append(s.calls, argv)
	if err, ok := s.fail[argv[0]]; ok {
		return err
	}
	return nil
}

func (s *execSpy) commands() []string {
	out := make([]string, len(s.calls))
	for i, argv := range s.calls {
		out[i] = strings.Join(argv, " ")
	}
	return out
}

func postResource(t *testing.T) appforge.ResourceDescriptor {
	t.Helper()
	res, err := appforge.ParseResource("post:title:text,published:boolean")
	require.NoError(t, err)
	return res
}

func testConfig(t *testing.T, base string, spy *execSpy, opts ...Option) *Config {
	t.Helper()
	all := append([]Option{
		WithBaseDir(base),
		WithAppName("blog"),
		WithLogger(log.New(io.Discard)),
		WithExec(spy.fn),
		WithCommandTimeout(time.Second),
		WithCommandRetries(0),
	}, opts...)
	cfg, err := NewConfig(all...)
	require.NoError(t, err)
	return cfg
}

func runOnce(t *testing.T, cfg *Config) (*Runner, error) {
	t.Helper()
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r, r.Run(context.Background())
}

// TestRunGeneratesScaffold covers the Post scenario end to end: a resource
// with title:text and published:boolean yields listing, detail, creation,
// and edit files, class name Post, and the plural route segment posts.
func TestRunGeneratesScaffold(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	spy := &execSpy{}
	cfg := testConfig(t, base, spy, WithResources(postResource(t)))

	r, err := runOnce(t, cfg)
	require.NoError(t, err)

	target := filepath.Join(base, "blog")
	for _, rel := range []string{
		"Gemfile",
		"config/routes.rb",
		"app/models/post.rb",
		"db/migrate/create_posts.rb",
		"app/controllers/posts_controller.rb",
		"app/views/posts/index.html.erb",
		"app/views/posts/show.html.erb",
		"app/views/posts/new.html.erb",
		"app/views/posts/edit.html.erb",
		"app/views/posts/_form.html.erb",
		"db/seeds/posts.rb",
	} {
		assert.FileExists(t, filepath.Join(target, rel))
	}

	model, err := os.ReadFile(filepath.Join(target, "app/models/post.rb"))
	require.NoError(t, err)
	assert.Contains(t, string(model), "class Post < ApplicationRecord")

	routes, err := os.ReadFile(filepath.Join(target, "config/routes.rb"))
	require.NoError(t, err)
	assert.Contains(t, string(routes), "resources :posts")
	assert.True(t, strings.HasSuffix(string(routes), "end\n"), "terminator stays last: %q", string(routes))

	assert.Equal(t, 1, r.Metrics().ResourcesOK)
	assert.Positive(t, r.Metrics().FilesWritten)

	// install, migrate, seed ran as opaque external commands.
	cmds := strings.Join(spy.commands(), "\n")
	assert.Contains(t, cmds, "bundle install")
	assert.Contains(t, cmds, "rake db:migrate")
	assert.Contains(t, cmds, "rake db:seed")
}

// TestSecondRunIsIdempotent covers the repeat-invocation scenario: the
// second run writes zero files, leaves modification timestamps unchanged,
// and does not duplicate the routing fragment.
func TestSecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	res := postResource(t)

	_, err := runOnce(t, testConfig(t, base, &execSpy{}, WithResources(res)))
	require.NoError(t, err)

	target := filepath.Join(base, "blog")
	modelPath := filepath.Join(target, "app/models/post.rb")
	before, err := os.Stat(modelPath)
	require.NoError(t, err)
	firstBody, err := os.ReadFile(modelPath)
	require.NoError(t, err)

	second, err := NewRunner(testConfig(t, base, &execSpy{}, WithResources(res)))
	require.NoError(t, err)
	require.NoError(t, second.Run(context.Background()))

	assert.Zero(t, second.Metrics().FilesWritten, "second run must perform zero writes")
	assert.Positive(t, second.Metrics().FilesSkipped)

	after, err := os.Stat(modelPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	secondBody, err := os.ReadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, firstBody, secondBody, "output is byte-identical across runs")

	routes, err := os.ReadFile(filepath.Join(target, "config/routes.rb"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(routes), "resources :posts"))
}

// TestPrerequisiteMissing verifies the fail-fast precondition check.
func TestPrerequisiteMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "not-created")
	cfg := testConfig(t, missing, &execSpy{})

	_, err := runOnce(t, cfg)
	assert.True(t, appforge.IsPrerequisiteMissing(err))
}

// TestResourceFailureIsolation verifies that one resource's failure is
// collected while generation proceeds to the next resource.
func TestResourceFailureIsolation(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	bad := appforge.ResourceDescriptor{Name: "bad-name"}
	good := postResource(t)
	cfg := testConfig(t, base, &execSpy{}, WithResources(bad, good))

	r, err := runOnce(t, cfg)
	require.Error(t, err)

	var failures FailureList
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad-name", failures[0].Resource)
	assert.True(t, appforge.IsInvalidIdentifier(failures[0].Err))

	// The good resource was still generated, and still routed.
	assert.FileExists(t, filepath.Join(base, "blog", "app/models/post.rb"))
	routes, readErr := os.ReadFile(filepath.Join(base, "blog", "config/routes.rb"))
	require.NoError(t, readErr)
	assert.Contains(t, string(routes), "resources :posts")

	assert.Equal(t, 1, r.Metrics().ResourcesFailed)
	assert.Equal(t, 1, r.Metrics().ResourcesOK)
}

// TestExternalCommandFailureAborts verifies that a failing install step
// aborts the run after the configured retries.
func TestExternalCommandFailureAborts(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	spy := &execSpy{fail: map[string]error{"bundle": errors.New("exit status 1")}}
	cfg := testConfig(t, base, spy,
		WithResources(postResource(t)),
		WithCommandRetries(2),
	)

	_, err := runOnce(t, cfg)
	require.True(t, appforge.IsExternalCommand(err))

	installs := 0
	for _, argv := range spy.calls {
		if argv[0] == "bundle" {
			installs++
		}
	}
	assert.Equal(t, 3, installs, "one attempt plus two retries")

	// Failure happened before per-resource generation.
	assert.NoFileExists(t, filepath.Join(base, "blog", "app/models/post.rb"))
}

// TestStaleArtifactSurfaced verifies that a present artifact whose recorded
// hash no longer matches the rendered content is reported as stale, not
// silently skipped or overwritten.
func TestStaleArtifactSurfaced(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	res := postResource(t)

	_, err := runOnce(t, testConfig(t, base, &execSpy{}, WithResources(res)))
	require.NoError(t, err)

	target := filepath.Join(base, "blog")
	modelPath := filepath.Join(target, "app/models/post.rb")
	original, err := os.ReadFile(modelPath)
	require.NoError(t, err)

	// Simulate a template change since generation: poison the recorded hash.
	m, err := marker.LoadManifest(target)
	require.NoError(t, err)
	m.Entries["app/models/post.rb"] = "0000"
	require.NoError(t, m.Save())

	r, err := NewRunner(testConfig(t, base, &execSpy{}, WithResources(res)))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	assert.Positive(t, r.Metrics().FilesStale)
	assert.Zero(t, r.Metrics().FilesWritten)

	got, err := os.ReadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, original, got, "stale artifact stays untouched")
}

// TestCommitCheckpoint verifies the optional commit step.
func TestCommitCheckpoint(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	spy := &execSpy{}
	cfg := testConfig(t, base, spy,
		WithResources(postResource(t)),
		WithCommit("generate blog"),
	)

	_, err := runOnce(t, cfg)
	require.NoError(t, err)

	cmds := strings.Join(spy.commands(), "\n")
	assert.Contains(t, cmds, "git add -A")
	assert.Contains(t, cmds, "generate blog")
}

// TestSkipInstall verifies the install step can be disabled.
func TestSkipInstall(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	spy := &execSpy{}
	cfg := testConfig(t, base, spy, WithResources(postResource(t)), WithSkipInstall())

	_, err := runOnce(t, cfg)
	require.NoError(t, err)

	for _, argv := range spy.calls {
		assert.NotEqual(t, "bundle", argv[0])
	}
}

// TestZeroResources verifies an empty resource list still provisions the
// skeleton and succeeds.
func TestZeroResources(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r, err := runOnce(t, testConfig(t, base, &execSpy{}))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(base, "blog", "config/routes.rb"))
	assert.Zero(t, r.Metrics().ResourcesFailed)
}
