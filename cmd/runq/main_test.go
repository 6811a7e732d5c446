package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/internal/config"
	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/internal/server"
	"github.com/kode4food/runq/pkg/client"
)

const greeter = `
greeter:
  definitions: name
  script:
  - narrate "hello <[name]>"
  - repeat 2:
    - narrate "tick <[loop_index]>"
  farewell:
  - narrate "bye <[name]>"
`

func scriptsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := scriptsDir(t, map[string]string{"greeter.yml": greeter})

	out, err := execute("check", dir, "--log-level", "error")
	assert.NoError(t, err)
	assert.Contains(t, out, "1 scripts ok")
}

func TestCheckCommandReportsProblems(t *testing.T) {
	dir := scriptsDir(t, map[string]string{
		"broken.yml": "broken:\n  script:\n  - explode now\n",
	})

	_, err := execute("check", dir, "--log-level", "error")
	assert.ErrorIs(t, err, script.ErrUnknownCommand)
}

func TestRunCommand(t *testing.T) {
	dir := scriptsDir(t, map[string]string{"greeter.yml": greeter})

	out, err := execute("run", "greeter",
		"--scripts", dir, "--def", "name=ada", "--log-level", "error")
	assert.NoError(t, err)
	assert.Equal(t, "hello ada\ntick 1\ntick 2\n", out)

	out, err = execute("run", "greeter", "farewell",
		"--scripts", dir, "-d", "name=ada", "--log-level", "error")
	assert.NoError(t, err)
	assert.Equal(t, "bye ada\n", out)
}

func TestRunCommandTimed(t *testing.T) {
	dir := scriptsDir(t, map[string]string{"greeter.yml": greeter})

	out, err := execute("run", "greeter", "--speed", "1t",
		"--scripts", dir, "-d", "name=bob", "--log-level", "error")
	assert.NoError(t, err)
	assert.Equal(t, "hello bob\ntick 1\ntick 2\n", out)
}

func TestRunCommandErrors(t *testing.T) {
	dir := scriptsDir(t, map[string]string{"greeter.yml": greeter})

	_, err := execute("run", "missing", "--scripts", dir,
		"--log-level", "error")
	assert.ErrorIs(t, err, script.ErrScriptNotFound)

	_, err = execute("run", "greeter", "--scripts", dir, "-d", "oops",
		"--log-level", "error")
	assert.Error(t, err)

	_, err = execute("run", "--scripts", dir)
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := engine.New(config.NewDefaultConfig(), engine.Dependencies{})
	require.NoError(t, eng.Scripts().LoadBytes("test.yml", []byte(greeter)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	srv := httptest.NewServer(server.NewServer(eng).SetupRoutes())
	defer srv.Close()

	out, err := execute("status", "--url", srv.URL)
	assert.NoError(t, err)
	assert.Contains(t, out, "runq")
	assert.Contains(t, out, "QUEUE")
	assert.Contains(t, out, "DEFERRED")
}

func TestStatusCommandUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	_, err := execute("status", "--url", srv.URL, "--timeout", "1s")
	assert.ErrorIs(t, err, client.ErrHealth)
}

func TestExampleScripts(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "scripts")

	out, err := execute("check", dir, "--log-level", "error")
	assert.NoError(t, err)
	assert.Contains(t, out, "scripts ok")

	out, err = execute("run", "party", "--scripts", dir,
		"--log-level", "error")
	assert.NoError(t, err)
	assert.Contains(t, out, "hello ada\n")
	assert.Contains(t, out, "hello linus\n")
	assert.Contains(t, out, "goodbye everyone\n")
}
