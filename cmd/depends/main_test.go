package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/depends/internal/config"
)

const manifest = `name: calc
items:
  - id: example.com/calc::TestPow
    depends_on: [TestMul]
  - id: example.com/calc::TestAdd
    aliases: [add]
  - id: example.com/calc::TestMul
    depends_on: [TestAdd, TestRoot]
`

const results = `{"Action":"run","Package":"example.com/calc","Test":"TestAdd"}
{"Action":"pass","Package":"example.com/calc","Test":"TestAdd"}
{"Action":"run","Package":"example.com/calc","Test":"TestMul"}
{"Action":"pass","Package":"example.com/calc","Test":"TestMul"}
{"Action":"run","Package":"example.com/calc","Test":"TestPow"}
{"Action":"pass","Package":"example.com/calc","Test":"TestPow"}
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvMissing, config.EnvFailed, config.EnvOrder, config.EnvLogLevel, config.EnvLogFormat, config.EnvLogFile} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestOrderCommand(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "suite.yaml", manifest)
	code, out, errOut := runCLI(t, "order", path)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "Execution order:\n  1. example.com/calc::TestAdd\n  2. example.com/calc::TestMul\n  3. example.com/calc::TestPow\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNamesCommand(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "suite.yaml", manifest)
	code, out, errOut := runCLI(t, "names", path)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "  add -> example.com/calc::TestAdd\n") {
		t.Fatalf("alias missing from listing:\n%s", out)
	}
	if strings.Contains(out, "\n  example.com/calc::TestAdd\n") {
		t.Fatalf("plain identifiers are verbose-only:\n%s", out)
	}
	_, verbose, _ := runCLI(t, "names", "-v", path)
	if !strings.Contains(verbose, "\n  example.com/calc::TestAdd\n") {
		t.Fatalf("verbose listing should include identifiers:\n%s", verbose)
	}
}

func TestDepsCommandMarksMissing(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "suite.yaml", manifest)
	code, out, errOut := runCLI(t, "deps", path)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "TestRoot (MISSING)") {
		t.Fatalf("expected missing marker:\n%s", out)
	}
}

func TestCheckCommandExitsOneWhenBlocked(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "suite.yaml", manifest)
	res := writeFile(t, dir, "results.json", results)

	code, out, errOut := runCLI(t, "check", path, "--results", res)
	if code != exitBlocked {
		t.Fatalf("exit %d, want %d: %s", code, exitBlocked, errOut)
	}
	if !strings.Contains(out, "which was not found") {
		t.Fatalf("expected missing-dependency message:\n%s", out)
	}
	if !strings.Contains(out, "1 run, 2 skip, 0 fail") {
		t.Fatalf("unexpected summary:\n%s", out)
	}

	code, out, errOut = runCLI(t, "--missing", "run", "check", path, "--results", res)
	if code != exitOK {
		t.Fatalf("exit %d with --missing run: %s\n%s", code, errOut, out)
	}
}

func TestEnvironmentPolicyApplies(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvMissing, "fail")
	dir := t.TempDir()
	path := writeFile(t, dir, "suite.yaml", manifest)
	res := writeFile(t, dir, "results.json", results)
	code, out, _ := runCLI(t, "check", path, "-r", res)
	if code != exitBlocked || !strings.Contains(out, "1 run, 1 skip, 1 fail") {
		t.Fatalf("exit %d:\n%s", code, out)
	}
}

func TestConfigErrorsExitTwo(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "suite.yaml", manifest)
	if code, _, errOut := runCLI(t, "--missing", "explode", "order", path); code != exitConfig {
		t.Fatalf("invalid policy: exit %d: %s", code, errOut)
	}

	cyclic := writeFile(t, dir, "cycle.yaml", `items:
  - id: a.py::A
    depends_on: [B]
  - id: a.py::B
    depends_on: [A]
`)
	code, _, errOut := runCLI(t, "order", cyclic)
	if code != exitConfig {
		t.Fatalf("cycle: exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "a.py::A -> a.py::B -> a.py::A") {
		t.Fatalf("cycle path missing from error: %s", errOut)
	}

	dup := writeFile(t, dir, "dup.yaml", "items:\n  - id: a.py::t\n  - id: a.py::()::t\n")
	if code, _, errOut := runCLI(t, "order", dup); code != exitConfig {
		t.Fatalf("duplicate: exit %d: %s", code, errOut)
	}
}

func TestLogFileFlag(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "suite.yaml", manifest)
	logPath := filepath.Join(dir, "logs", "depends.log")
	code, _, errOut := runCLI(t, "--log-level", "debug", "--log-file", logPath, "deps", path)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "unresolved dependency") {
		t.Fatalf("expected resolution warning in log file:\n%s", data)
	}
}

func TestBrowseRequiresTerminal(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "suite.yaml", manifest)
	code, _, errOut := runCLI(t, "browse", path)
	if code != exitBlocked || !strings.Contains(errOut, "interactive terminal") {
		t.Fatalf("exit %d: %s", code, errOut)
	}
}

func TestUnreadableManifestExitsTwo(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "items: [\n")
	code, _, errOut := runCLI(t, "order", bad)
	if code != exitConfig || !strings.Contains(errOut, "decode manifest") {
		t.Fatalf("malformed manifest: exit %d: %s", code, errOut)
	}

	code, _, errOut = runCLI(t, "deps", filepath.Join(dir, "absent.yaml"))
	if code != exitConfig {
		t.Fatalf("missing manifest: exit %d: %s", code, errOut)
	}
}
