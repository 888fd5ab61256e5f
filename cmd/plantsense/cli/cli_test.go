package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"plantsense-go/types"
)

// run executes one CLI invocation against the simulated bus and a bbolt file
// under dir, the way a user would from a shell.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "plantsense.yaml")
	if _, err := os.Stat(cfg); err != nil {
		data := "storage:\n  path: " + filepath.Join(dir, "params.db") + "\ninit:\n  backoff_ms: 1\npoll:\n  interval_ms: 1\n"
		if err := os.WriteFile(cfg, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--sim", "--log-level", "error", "--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSetPersistsAcrossInvocations(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "set", "two", "ffi", "9")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "ffi=3" {
		t.Fatalf("set output %q", out)
	}

	out, err = run(t, dir, "show")
	if err != nil {
		t.Fatal(err)
	}
	var report map[string]chipReport
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("show output is not YAML: %v\n%s", err, out)
	}
	two := report["two"]
	if two.Params.FFI != 3 || !two.InSync || two.Config1 != "0xd2" {
		t.Fatalf("two = %+v", two)
	}
	if report["one"].Params != types.DefaultParameterSet() {
		t.Fatalf("one = %+v", report["one"])
	}

	if _, err := run(t, dir, "set", "one", "cdc", "40"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, dir, "show")
	_ = yaml.Unmarshal([]byte(out), &report)
	if report["one"].Params.CDC != 40 || report["one"].Config1 != "0xe8" {
		t.Fatalf("one = %+v", report["one"])
	}
}

func TestResetClearsSavedState(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "set", "one", "esi", "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "reset"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "show")
	if err != nil {
		t.Fatal(err)
	}
	var report map[string]chipReport
	_ = yaml.Unmarshal([]byte(out), &report)
	if report["one"].Params != types.DefaultParameterSet() {
		t.Fatalf("one = %+v", report["one"])
	}
}

func TestReadAndErrors(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "read", "left", "3")
	if err != nil {
		t.Fatal(err)
	}
	// the simulator seeds filtered data with 600+10*chip+electrode
	if strings.TrimSpace(out) != "603" {
		t.Fatalf("read = %q", out)
	}
	if _, err := run(t, dir, "set", "three", "ffi", "1"); err == nil || !strings.Contains(err.Error(), "unknown_chip") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunPollsBothChips(t *testing.T) {
	out, err := run(t, t.TempDir(), "run", "--count", "2")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "left [") || !strings.HasPrefix(lines[1], "right [") {
		t.Fatalf("run output:\n%s", out)
	}
}

func TestConsoleCommand(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	root := NewRootCommand(&out)
	root.SetIn(strings.NewReader("get one\nbogus\n"))
	root.SetErr(&bytes.Buffer{})
	// volatile storage: no database file at all
	cfg := filepath.Join(dir, "c.yaml")
	_ = os.WriteFile(cfg, []byte("storage: {volatile: true}\n"), 0o644)
	root.SetArgs([]string{"--sim", "--log-level", "error", "--config", cfg, "console"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	want := "ok ffi=3 cdc=18 cdt=4 sfi=0 esi=2 config1=0xd2 config2=0x82\nerror: unknown_command\n"
	if out.String() != want {
		t.Fatalf("got %q", out.String())
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Fatalf("volatile run created files: %v", entries)
	}
}

func TestBuses(t *testing.T) {
	out, err := run(t, t.TempDir(), "buses")
	if err != nil || strings.TrimSpace(out) != "sim" {
		t.Fatalf("out=%q err=%v", out, err)
	}

	var buf bytes.Buffer
	if err := listBuses(&buf, func() ([]string, error) { return []string{"1", "20"}, nil }); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "1\n20\n" {
		t.Fatalf("listed %q", buf.String())
	}
	if err := listBuses(&buf, func() ([]string, error) { return nil, nil }); err == nil {
		t.Fatal("empty bus list accepted")
	}
	boom := errors.New("no sysfs")
	if err := listBuses(&buf, func() ([]string, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
