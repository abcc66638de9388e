package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepub/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepub/internal/history"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Site</title>
  <link rel="stylesheet" href="style.css">
</head>
<body>
  <h1>Hello</h1>
  <a href="readme.html">Read me</a>
  <script src="script.js"></script>
</body>
</html>
`

// siteRepo creates a committed site in a fresh repository with a gh-pages
// branch.
func siteRepo(t *testing.T) (*gogit.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	files := map[string]string{
		"index.html": indexHTML,
		"style.css":  "body {\n  color: #333333;\n  margin: 0px;\n}\n",
		"script.js":  "function greet(name) {\n  return 'hi ' + name;\n}\n",
		"README.md":  "# Read me\n\nSome *text*.\n",
	}
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	hash, err := wt.Commit("site sources", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("gh-pages"), hash)))
	return repo, dir
}

func writeSiteConfig(t *testing.T, siteDir string) (string, string) {
	t.Helper()
	state := t.TempDir()
	cfgPath := filepath.Join(state, "sitepub.yaml")
	content := `
base_dir: ` + siteDir + `
build:
  directory: ` + filepath.Join(state, "build") + `
catalog:
  - {name: readme, kind: document, source: README.md}
  - {name: index, kind: markup, source: index.html}
  - {name: style, kind: style, source: style.css}
  - {name: script, kind: script, source: script.js}
minify:
  backend: local
publish:
  backend: gogit
  author: {name: Site Bot, email: bot@example.com}
history:
  path: ` + filepath.Join(state, "history.db") + `
metrics:
  textfile: ` + filepath.Join(state, "metrics", "sitepub.prom") + `
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, state
}

func TestRunBuildAndPublish(t *testing.T) {
	repo, siteDir := siteRepo(t)
	cfgPath, state := writeSiteConfig(t, siteDir)
	root := &CLI{Config: cfgPath}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)

	var out bytes.Buffer
	res, pres, err := RunBuild(context.Background(), &Global{}, cfg, true, &out)
	require.NoError(t, err)
	require.NotNil(t, pres)
	assert.Contains(t, out.String(), "Built ")
	assert.Contains(t, out.String(), "Published ")
	assert.ElementsMatch(t, []string{"style.css", "script.js"}, res.Inlined)

	pages, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	assert.Equal(t, pres.Commit, pages.Hash().String())
	commit, err := repo.CommitObject(pages.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Site Bot", commit.Author.Name)
	for _, name := range []string{"index.html", "index.html.gz", "readme.html", "readme.html.gz"} {
		_, err := commit.File(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"style.css", "script.js", "README.md"} {
		_, err := commit.File(name)
		assert.Error(t, err, name)
	}
	f, err := commit.File("index.html")
	require.NoError(t, err)
	published, err := f.Contents()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(published, "<!-- Oh hi there!"))
	assert.Contains(t, published, "<style>")
	assert.NotContains(t, published, `src="script.js"`)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.NotEqual(t, "gh-pages", head.Name().Short())

	store, err := history.Open(cfg.Resolve(cfg.History.Path))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.BuildID, runs[0].BuildID)
	assert.Equal(t, pres.Commit, runs[0].Commit)
	assert.Equal(t, head.Hash().String(), runs[0].SourceRevision)

	prom, err := os.ReadFile(filepath.Join(state, "metrics", "sitepub.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "sitepub_build_outcomes_total")

	var table bytes.Buffer
	require.NoError(t, RunHistory(context.Background(), cfg, HistoryQuery{Limit: 5}, &table))
	assert.Contains(t, table.String(), "published")
	assert.Contains(t, table.String(), pres.Commit[:12])
}

func TestRunHistorySelectsRuns(t *testing.T) {
	_, siteDir := siteRepo(t)
	cfgPath, _ := writeSiteConfig(t, siteDir)
	root := &CLI{Config: cfgPath}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, RunHistory(ctx, cfg, HistoryQuery{LastPublished: true}, &out))
	assert.Contains(t, out.String(), "No runs recorded yet.")

	_, _, err = RunBuild(ctx, &Global{}, cfg, false, &bytes.Buffer{})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, RunHistory(ctx, cfg, HistoryQuery{LastPublished: true}, &out))
	assert.Contains(t, out.String(), "Nothing has been published yet.")

	published, pres, err := RunBuild(ctx, &Global{}, cfg, true, &bytes.Buffer{})
	require.NoError(t, err)
	buildOnly, _, err := RunBuild(ctx, &Global{}, cfg, false, &bytes.Buffer{})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, RunHistory(ctx, cfg, HistoryQuery{LastPublished: true}, &out))
	assert.Contains(t, out.String(), short(published.BuildID))
	assert.Contains(t, out.String(), short(pres.Commit))
	assert.NotContains(t, out.String(), short(buildOnly.BuildID))

	out.Reset()
	require.NoError(t, RunHistory(ctx, cfg, HistoryQuery{BuildID: buildOnly.BuildID}, &out))
	assert.Contains(t, out.String(), short(buildOnly.BuildID))
	assert.NotContains(t, out.String(), short(published.BuildID))

	out.Reset()
	require.NoError(t, RunHistory(ctx, cfg, HistoryQuery{BuildID: "no-such-build"}, &out))
	assert.Contains(t, out.String(), "No runs recorded for build no-such-build.")
}

func TestRunBuildRefusesDirtyTree(t *testing.T) {
	repo, siteDir := siteRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, "README.md"), []byte("# Changed\n"), 0o600))
	cfgPath, _ := writeSiteConfig(t, siteDir)
	root := &CLI{Config: cfgPath}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)

	before, err := repo.Head()
	require.NoError(t, err)

	res, pres, err := RunBuild(context.Background(), &Global{}, cfg, true, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, res.Status.IsSuccess())
	assert.Equal(t, 3, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.NotNil(t, pres)
	assert.Empty(t, pres.Transitions)

	after, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, before.Name(), after.Name())
	assert.Equal(t, before.Hash(), after.Hash())
}

func TestRunBuildRefusesBuildDirInsideWorkTree(t *testing.T) {
	repo, siteDir := siteRepo(t)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, ".gitignore"), []byte("builds/\n"), 0o600))
	_, err = wt.Add(".gitignore")
	require.NoError(t, err)
	_, err = wt.Commit("ignore builds", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	cfgPath, _ := writeSiteConfig(t, siteDir)
	root := &CLI{Config: cfgPath}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	cfg.Build.Directory = "builds"

	pagesBefore, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)

	res, pres, err := RunBuild(context.Background(), &Global{}, cfg, true, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, res.Status.IsSuccess())
	assert.Equal(t, 3, foundationerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, err.Error(), "inside the work tree")
	require.NotNil(t, pres)
	assert.Empty(t, pres.Transitions)

	pagesAfter, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	assert.Equal(t, pagesBefore.Hash(), pagesAfter.Hash())
	assert.FileExists(t, filepath.Join(siteDir, "builds", "index.html"))

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewBranchReferenceName("master"), head.Name())
}

func TestLoadConfigFallsBackToBuiltInCatalog(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: config.DefaultFile, BaseDir: dir}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Len(t, cfg.Catalog, 9)

	root = &CLI{Config: filepath.Join(dir, "custom.yaml")}
	_, err = root.LoadConfig()
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestLoadConfigPrefersFileInBaseDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>x</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile),
		[]byte("catalog:\n  - {name: index, kind: markup, source: index.html}\n"), 0o600))

	root := &CLI{Config: config.DefaultFile, BaseDir: dir}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Catalog, 1)
}

func TestRunBuildReportsMissingSource(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: config.DefaultFile, BaseDir: dir}
	cfg, err := root.LoadConfig()
	require.NoError(t, err)

	_, _, err = RunBuild(context.Background(), &Global{}, cfg, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestRunHistoryRequiresLedger(t *testing.T) {
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)
	err = RunHistory(context.Background(), cfg, HistoryQuery{}, &bytes.Buffer{})
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))

	cfg.History.Path = filepath.Join(t.TempDir(), "none.db")
	var out bytes.Buffer
	require.NoError(t, RunHistory(context.Background(), cfg, HistoryQuery{}, &out))
	assert.Contains(t, out.String(), "No runs recorded yet.")
}

func TestSetupLoggingHonoursEnvironment(t *testing.T) {
	t.Setenv(LogLevelEnv, "error")
	root := &CLI{Verbose: true}
	root.setupLogging(config.LogLevelDebug, config.LogFormatJSON)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}
