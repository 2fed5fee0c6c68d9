package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/caffeineduck/piston/catalog"
	"github.com/caffeineduck/piston/client"
	"github.com/caffeineduck/piston/internal/pistontest"
	"github.com/chzyer/readline"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		{Name: "python", Version: "3.10.0", Aliases: []string{"py", "python3"}},
		{Name: "rust", Version: "1.68.2", Aliases: []string{"rs"}},
		{Name: "javascript", Version: "18.15.0", Aliases: []string{"js", "node"}, Runtime: "node"},
	}
}

func newStub(t *testing.T) *pistontest.Server {
	t.Helper()
	srv := pistontest.NewServer(testCatalog())
	t.Cleanup(srv.Close)
	return srv
}

// useFs swaps the command file system for the duration of the test.
func useFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	prev := appFs
	appFs = fsys
	t.Cleanup(func() { appFs = prev })
	return fsys
}

func runReply(code int, output string) pistontest.ExecuteFunc {
	return func(body []byte) (int, string) {
		var req struct {
			Language string `json:"language"`
			Version  string `json:"version"`
		}
		json.Unmarshal(body, &req)
		b, _ := json.Marshal(map[string]any{
			"language": req.Language,
			"version":  req.Version,
			"run": map[string]any{
				"code":   code,
				"output": output,
				"stdout": output,
				"stderr": "",
				"signal": nil,
			},
		})
		return http.StatusOK, string(b)
	}
}

func executeCommand(args ...string) (string, error) {
	return executeCommandWithInput(nil, args...)
}

func executeCommandWithInput(in io.Reader, args ...string) (string, error) {
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	if in != nil {
		root.SetIn(in)
	}
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func lastRequest(t *testing.T, srv *pistontest.Server) client.Request {
	t.Helper()
	reqs := srv.Requests()
	require.NotEmpty(t, reqs)
	var req client.Request
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1], &req))
	return req
}

// =============================================================================
// HELP
// =============================================================================

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand("--help")
	require.NoError(t, err)

	for _, phrase := range []string{"piston", "run", "langs", "repl", "serve", "packages", "--base-url", "--no-cache"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIRunHelp(t *testing.T) {
	output, err := executeCommand("run", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--code", "--lang", "--lang-version", "--input", "--arg", "--run-timeout"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIReplHelp(t *testing.T) {
	output, err := executeCommand("repl", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--lang", "--history", "Command history", ":refresh"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIServeHelp(t *testing.T) {
	output, err := executeCommand("serve", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--addr", "--shutdown-timeout", "/execute", "/runtimes", "/health"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIPackagesHelp(t *testing.T) {
	output, err := executeCommand("packages", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"install", "list", "remove"} {
		assert.Contains(t, output, phrase)
	}
}

// =============================================================================
// LANGUAGE DETECTION
// =============================================================================

func TestGetLanguage(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		filename string
		want     string
		wantErr  bool
	}{
		{"flag wins", "rs", "main.py", "rs", false},
		{"python ext", "", "main.py", "python", false},
		{"upper case ext", "", "MAIN.PY", "python", false},
		{"nested path", "", "src/app/main.rs", "rust", false},
		{"mjs", "", "index.mjs", "javascript", false},
		{"cpp", "", "a.cpp", "c++", false},
		{"unknown ext", "", "notes.txt", "", true},
		{"no input", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getLanguage(tt.flag, tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadSourcesKeepsOrderAndBaseNames(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/src/main.rs", []byte("fn main() {}"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/src/lib/utils.rs", []byte("pub fn f() {}"), 0o644))

	files, err := loadSources(fsys, []string{"/src/main.rs", "/src/lib/utils.rs"})
	require.NoError(t, err)

	assert.Equal(t, []client.File{
		{Name: "main.rs", Content: "fn main() {}"},
		{Name: "utils.rs", Content: "pub fn f() {}"},
	}, files)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := loadSources(afero.NewMemMapFs(), []string{"/nope.py"})
	assert.Error(t, err)
}

// =============================================================================
// RUN
// =============================================================================

func TestRunFile(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(runReply(0, "hello"))
	fsys := useFs(t)
	require.NoError(t, afero.WriteFile(fsys, "/src/main.py", []byte(`print("hello")`), 0o644))

	output, err := executeCommand("--base-url", srv.BaseURL(), "/src/main.py")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", output)

	req := lastRequest(t, srv)
	assert.Equal(t, "python", req.Language)
	assert.Equal(t, "3.10.0", req.Version)
	require.Len(t, req.Files, 1)
	assert.Equal(t, "main.py", req.Files[0].Name)
	assert.Equal(t, `print("hello")`, req.Files[0].Content)
}

func TestRunMultipleFilesMainFirst(t *testing.T) {
	srv := newStub(t)
	fsys := useFs(t)
	require.NoError(t, afero.WriteFile(fsys, "main.rs", []byte("mod utils;"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "utils.rs", []byte("pub fn f() {}"), 0o644))

	_, err := executeCommand("run", "--base-url", srv.BaseURL(), "main.rs", "utils.rs")
	require.NoError(t, err)

	req := lastRequest(t, srv)
	assert.Equal(t, "rust", req.Language)
	assert.Equal(t, "1.68.2", req.Version)
	require.Len(t, req.Files, 2)
	assert.Equal(t, "main.rs", req.Files[0].Name)
	assert.Equal(t, "utils.rs", req.Files[1].Name)
}

func TestRunInlineCodeWithAlias(t *testing.T) {
	srv := newStub(t)

	_, err := executeCommand("--base-url", srv.BaseURL(), "-l", "py", "-c", "print(1)",
		"--input", "abc", "--arg", "x", "--arg", "y", "--run-timeout", "2s")
	require.NoError(t, err)

	req := lastRequest(t, srv)
	assert.Equal(t, "py", req.Language)
	assert.Equal(t, "3.10.0", req.Version)
	assert.Equal(t, "abc", req.Stdin)
	assert.Equal(t, []string{"x", "y"}, req.Args)
	assert.Equal(t, int64(2000), req.RunTimeout)
}

func TestRunFromStdin(t *testing.T) {
	srv := newStub(t)

	_, err := executeCommandWithInput(strings.NewReader("console.log(1)"), "--base-url", srv.BaseURL(), "-l", "node")
	require.NoError(t, err)

	req := lastRequest(t, srv)
	assert.Equal(t, "node", req.Language)
	assert.Equal(t, "18.15.0", req.Version)
	assert.Equal(t, "console.log(1)", req.Files[0].Content)
}

func TestRunPinnedVersionSkipsRuntimeList(t *testing.T) {
	srv := newStub(t)

	_, err := executeCommand("--base-url", srv.BaseURL(), "-l", "python", "--lang-version", "3.12.0", "-c", "pass")
	require.NoError(t, err)

	assert.Equal(t, 0, srv.RuntimesCalls())
	assert.Equal(t, "3.12.0", lastRequest(t, srv).Version)
}

func TestRunPropagatesExitCode(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(runReply(3, "boom\n"))

	output, err := executeCommand("--base-url", srv.BaseURL(), "-l", "python", "-c", "exit(3)")

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.code)
	assert.Equal(t, "boom\n", output)
}

func TestRunCompileFailure(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(pistontest.Reply(http.StatusOK, `{
		"language": "rust", "version": "1.68.2",
		"compile": {"code": 1, "output": "error[E0425]", "stdout": "", "stderr": "error[E0425]", "signal": null},
		"run": {"code": 0, "output": "", "stdout": "", "stderr": "", "signal": null}
	}`))

	output, err := executeCommand("--base-url", srv.BaseURL(), "-l", "rust", "-c", "fn main() { x }")

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.code)
	assert.Contains(t, output, "error[E0425]")
}

func TestRunUnknownLanguage(t *testing.T) {
	srv := newStub(t)

	_, err := executeCommand("--base-url", srv.BaseURL(), "-l", "cobol", "-c", "DISPLAY 'HI'.")
	assert.ErrorIs(t, err, client.ErrUnknownLanguage)
	assert.Equal(t, 0, srv.ExecuteCalls())
}

func TestRunServiceError(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(pistontest.Reply(http.StatusBadRequest, `{"message":"python-3.10.0 runtime is unknown"}`))

	_, err := executeCommand("--base-url", srv.BaseURL(), "-l", "python", "-c", "pass")

	var svcErr *client.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "python-3.10.0 runtime is unknown", svcErr.Message)
}

func TestRunNeedsLanguage(t *testing.T) {
	_, err := executeCommand("-c", "print(1)")
	assert.ErrorContains(t, err, "language required")
}

func TestRunInvalidBaseURL(t *testing.T) {
	_, err := executeCommand("--base-url", "not a url", "-l", "python", "-c", "pass")
	assert.ErrorIs(t, err, client.ErrInvalidConfig)
}

func TestRunConfigFile(t *testing.T) {
	srv := newStub(t)
	fsys := useFs(t)
	cfg := "base_url: " + srv.BaseURL() + "\nuser_agent: piston-cli-test\n"
	require.NoError(t, afero.WriteFile(fsys, "/etc/piston.yaml", []byte(cfg), 0o644))

	_, err := executeCommand("--config", "/etc/piston.yaml", "-l", "python", "-c", "pass")
	require.NoError(t, err)
	assert.Equal(t, "piston-cli-test", srv.LastUserAgent())
}

// =============================================================================
// LANGS
// =============================================================================

func TestLangsTable(t *testing.T) {
	srv := newStub(t)

	output, err := executeCommand("langs", "--base-url", srv.BaseURL())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "python")
	assert.Contains(t, lines[1], "py,python3")
	assert.Contains(t, lines[3], "node")
}

func TestLangsJSON(t *testing.T) {
	srv := newStub(t)

	output, err := executeCommand("langs", "--json", "--base-url", srv.BaseURL())
	require.NoError(t, err)

	var got catalog.Catalog
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, testCatalog(), got)
}

func TestLangsResolve(t *testing.T) {
	srv := newStub(t)

	output, err := executeCommand("langs", "--base-url", srv.BaseURL(), "rs")
	require.NoError(t, err)
	assert.Equal(t, "1.68.2\n", output)

	_, err = executeCommand("langs", "--base-url", srv.BaseURL(), "cobol")
	assert.ErrorIs(t, err, client.ErrUnknownLanguage)
}

// =============================================================================
// PACKAGES
// =============================================================================

func TestPackagesLifecycle(t *testing.T) {
	srv := newStub(t)

	output, err := executeCommand("packages", "install", "--base-url", srv.BaseURL(), "go", "1.16.2")
	require.NoError(t, err)
	assert.Equal(t, "Installed go-1.16.2\n", output)

	output, err = executeCommand("packages", "list", "--base-url", srv.BaseURL())
	require.NoError(t, err)
	assert.Contains(t, output, "go")
	assert.Contains(t, output, "1.16.2")

	_, err = executeCommand("packages", "install", "--base-url", srv.BaseURL(), "go", "1.16.2")
	var svcErr *client.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "Already installed", svcErr.Message)

	output, err = executeCommand("pkg", "remove", "--base-url", srv.BaseURL(), "go", "1.16.2")
	require.NoError(t, err)
	assert.Equal(t, "Removed go-1.16.2\n", output)

	assert.Equal(t, 0, srv.RuntimesCalls())
}

// =============================================================================
// REPL
// =============================================================================

type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func newTestRepl(t *testing.T, srv *pistontest.Server) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	c, err := client.New(context.Background(), client.WithBaseURL(srv.BaseURL()))
	require.NoError(t, err)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	return &repl{client: c, language: "python", out: out, errOut: errOut}, out, errOut
}

func TestReplRunsSnippets(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(runReply(0, "2"))
	r, out, _ := newTestRepl(t, srv)

	err := r.loop(context.Background(), &scriptedReader{lines: []string{"print(1+1)", "", "exit", "print(3)"}})
	require.NoError(t, err)

	assert.Equal(t, 1, srv.ExecuteCalls())
	assert.Equal(t, "2\n", out.String())
}

func TestReplMultiLine(t *testing.T) {
	srv := newStub(t)
	r, _, _ := newTestRepl(t, srv)
	rd := &scriptedReader{lines: []string{"for i in range(2):\\", "    print(i)"}}

	require.NoError(t, r.loop(context.Background(), rd))

	req := lastRequest(t, srv)
	assert.Equal(t, "for i in range(2):\n    print(i)", req.Files[0].Content)
	assert.Equal(t, []string{"... ", ">>> "}, rd.prompts)
}

func TestReplInterruptDropsPendingInput(t *testing.T) {
	srv := newStub(t)
	r, _, _ := newTestRepl(t, srv)

	err := r.loop(context.Background(), &scriptedReader{lines: []string{"if True:\\", "^C", "quit"}})
	require.NoError(t, err)
	assert.Equal(t, 0, srv.ExecuteCalls())
}

func TestReplCommands(t *testing.T) {
	srv := newStub(t)
	r, _, errOut := newTestRepl(t, srv)

	err := r.loop(context.Background(), &scriptedReader{lines: []string{":lang rs", ":lang cobol", ":refresh", ":bogus", "fn main() {}"}})
	require.NoError(t, err)

	assert.Equal(t, "rs", r.language)
	assert.Equal(t, 2, srv.RuntimesCalls())
	assert.Contains(t, errOut.String(), "switched to rs 1.68.2")
	assert.Contains(t, errOut.String(), "unknown language")
	assert.Contains(t, errOut.String(), "unknown command :bogus")

	req := lastRequest(t, srv)
	assert.Equal(t, "rs", req.Language)
	assert.Equal(t, "1.68.2", req.Version)
}

func TestReplReportsExitStatus(t *testing.T) {
	srv := newStub(t)
	srv.SetExecute(runReply(1, "Traceback"))
	r, out, errOut := newTestRepl(t, srv)

	require.NoError(t, r.loop(context.Background(), &scriptedReader{lines: []string{"raise Exception", "exit"}}))
	assert.Equal(t, "Traceback\n", out.String())
	assert.Contains(t, errOut.String(), "exit status 1")
}
