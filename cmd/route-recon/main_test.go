package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-recon/internal/config"
	"route-recon/internal/model"
	"route-recon/internal/testutil/classgen"
)

var ann = classgen.Ann

func writeClass(t *testing.T, root string, c *classgen.ClassBuilder) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(c.InternalName())+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, c.Bytes(), 0644))
}

func userController() *classgen.ClassBuilder {
	c := classgen.New("com.example.UserController").
		Annotate(ann("io.jooby.annotations.Path", "value", []string{"/users"}))
	c.Method("getUser", "(Ljava/lang/String;)Lcom/example/User;").
		Annotate(ann("io.jooby.annotations.GET", "value", []string{"/{id}"})).
		Arg("id", "Ljava/lang/String;", classgen.WithAnnotations(ann("io.jooby.annotations.PathParam")))
	c.Method("create", "(Lcom/example/User;)Lcom/example/User;").
		Annotate(ann("io.jooby.annotations.POST")).
		Arg("user", "Lcom/example/User;")
	return c
}

func healthController() *classgen.ClassBuilder {
	c := classgen.New("com.example.HealthController")
	c.Method("ping", "()Ljava/lang/String;").
		Annotate(ann("io.jooby.annotations.GET", "value", []string{"/ping"}))
	return c
}

// fixture writes a classpath directory and manifest and returns a config for them
func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	writeClass(t, classes, userController())
	writeClass(t, classes, healthController())

	manifestPath := filepath.Join(dir, "mounts.txt")
	require.NoError(t, os.WriteFile(manifestPath, []byte(
		"# registered controllers\nmvc com.example.UserController /api\n"), 0644))

	return &config.Config{
		Project:   config.ProjectConfig{Name: "demo", Version: "0.1.0", Encoding: []string{"utf-8"}},
		Classpath: config.ClasspathConfig{Entries: []string{classes}},
		Mounts:    []config.MountConfig{{Type: "com.example.HealthController"}},
		Analysis: config.AnalysisConfig{
			Manifest:           manifestPath,
			Parallelism:        2,
			MissingNullability: config.NullabilityRequired,
		},
		Output: config.OutputConfig{
			Dir:         filepath.Join(dir, "out"),
			FileName:    "report",
			Formats:     []string{"excel", "html", "word", "openapi", "json"},
			MetricsFile: filepath.Join(dir, "out", "metrics.prom"),
		},
	}
}

func TestRunPass(t *testing.T) {
	cfg := fixture(t)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.EnsureOutputDir())

	result, err := runPass(context.Background(), cfg, false, io.Discard)
	require.NoError(t, err)

	// Manifest mounts come first, then config mounts
	require.Len(t, result.Operations, 3)
	assert.Equal(t, "/api/users/{id}", result.Operations[0].Pattern)
	assert.Equal(t, "POST", result.Operations[1].Verb)
	assert.Equal(t, "/api/users", result.Operations[1].Pattern)
	assert.Equal(t, "/ping", result.Operations[2].Pattern)

	require.NotNil(t, result.Operations[1].RequestBody)
	assert.Equal(t, model.ContentTypeJSON, result.Operations[1].RequestBody.ContentType)

	assert.Equal(t, "demo", result.Summary.ProjectName)
	assert.Equal(t, 2, result.Summary.TotalMounts)
	assert.Equal(t, 2, result.Summary.TotalControllers)

	for _, name := range []string{
		"report.xlsx", "report.html", "report.docx",
		"report.openapi.json", "report.openapi.yaml", "report.json", "metrics.prom",
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
	}

	metrics, err := os.ReadFile(cfg.Output.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `route_recon_operations_total{verb="GET"} 2`)
}

func TestRunPass_MissingController(t *testing.T) {
	cfg := fixture(t)
	cfg.Mounts = append(cfg.Mounts, config.MountConfig{Type: "com.example.Missing"})
	require.NoError(t, cfg.EnsureOutputDir())

	_, err := runPass(context.Background(), cfg, false, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "com.example.Missing")

	// Fatal errors abort before any report is written
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "report.xlsx"))
}

func TestRootCommand(t *testing.T) {
	cfg := fixture(t)
	out := filepath.Join(t.TempDir(), "out")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"project:",
		"  name: demo",
		"  encoding: [utf-8]",
		"classpath:",
		"  entries: [" + cfg.Classpath.Entries[0] + "]",
		"mounts:",
		"  - type: com.example.HealthController",
		"    prefix: /ops",
		"output:",
		"  dir: " + out,
		"  file_name: cli",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--config", configPath, "--no-progress", "--format", "json,openapi", "--manifest", cfg.Analysis.Manifest})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(out, "cli.json"))
	assert.FileExists(t, filepath.Join(out, "cli.openapi.yaml"))
	assert.NoFileExists(t, filepath.Join(out, "cli.xlsx"))

	data, err := os.ReadFile(filepath.Join(out, "cli.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pattern": "/ops/ping"`)
	assert.Contains(t, string(data), `"pattern": "/api/users/{id}"`)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "classpath:\n  entries: [/does/not/exist]\noutput:\n  dir: " + t.TempDir() + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", configPath})
	assert.Error(t, cmd.Execute())
}

func TestApplyOverrides(t *testing.T) {
	cfg := fixture(t)
	out := filepath.Join(t.TempDir(), "reports")

	err := applyOverrides(cfg, &cliOptions{parallelism: 8, formats: []string{"json"}, outputDir: out})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Analysis.Parallelism)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, out, cfg.Output.Dir)
	assert.DirExists(t, out)
}

func TestWatchSet(t *testing.T) {
	cfg := fixture(t)
	ws := newWatchSet(cfg)
	classes := cfg.Classpath.Entries[0]

	assert.True(t, ws.matches(filepath.Join(classes, "com", "example", "A.class")))
	assert.True(t, ws.matches(filepath.Join(classes, "lib", "dep.jar")))
	assert.True(t, ws.matches(cfg.Analysis.Manifest))
	assert.False(t, ws.matches(filepath.Join(classes, "notes.txt")))
	assert.False(t, ws.matches(filepath.Join(filepath.Dir(classes), "Other.class")))
}

func TestWatch_RerunsOnChange(t *testing.T) {
	cfg := fixture(t)
	ws := newWatchSet(cfg)
	classes := cfg.Classpath.Entries[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var passes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, ws, 20*time.Millisecond, func(context.Context) { passes.Add(1) })
	}()

	require.Eventually(t, func() bool { return passes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Unrelated files do not trigger a pass
	require.NoError(t, os.WriteFile(filepath.Join(classes, "README.txt"), []byte("x"), 0644))
	writeClass(t, classes, classgen.New("com.example.AddedController"))

	require.Eventually(t, func() bool { return passes.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
