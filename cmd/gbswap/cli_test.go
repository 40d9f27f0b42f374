package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gbswap/internal/bitmap"
	"gbswap/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	stateDir   string
	configPath string
}

func setupCLITestEnv(t *testing.T, extraServer string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("GBSWAP_API_TOKEN", "")

	env := &cliTestEnv{
		baseDir:    base,
		stateDir:   filepath.Join(base, "state"),
		configPath: filepath.Join(base, "gbswap.toml"),
	}
	content := fmt.Sprintf("[server]\nbind = \"127.0.0.1:0\"\n%s\n[paths]\nstate_dir = %q\n", extraServer, env.stateDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(env.baseDir, "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateReportsErrors(t *testing.T) {
	env := setupCLITestEnv(t, "max_upload = \"lots\"")
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil || !strings.Contains(err.Error(), "max_upload") {
		t.Fatalf("expected max_upload error, got %v", err)
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	env := setupCLITestEnv(t, "api_token = \"hunter2\"")

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "server.api_token")
	requireContains(t, out, "(set)")
	requireContains(t, out, env.stateDir)
	if strings.Contains(out, "hunter2") {
		t.Fatalf("token leaked in %q", out)
	}

	out, _, err = runCLI(t, []string{"config", "show", "--toml"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --toml: %v", err)
	}
	requireContains(t, out, "[server]")
	if strings.Contains(out, "hunter2") {
		t.Fatalf("token leaked in %q", out)
	}
}

func TestSwapWritesNextToInput(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := testsupport.WriteBMP(t, env.baseDir, "photo.bmp", testsupport.TwoByTwo())

	out, _, err := runCLI(t, []string{"swap", input}, env.configPath)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	target := filepath.Join(env.baseDir, "gb_swapped_photo.bmp")
	requireContains(t, out, target)
	requireContains(t, out, "2 × 2 RGB")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	decoded, err := bitmap.DecodeBytes(data)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got := decoded.Buffer.Pixel(0, 0); !bytes.Equal(got, []uint8{10, 30, 20}) {
		t.Fatalf("expected (10,30,20), got %v", got)
	}
}

func TestSwapExplicitOutputAndStdout(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := testsupport.WriteBMP(t, env.baseDir, "in.bmp", testsupport.Gradient(5, 3))

	target := filepath.Join(env.baseDir, "out.bmp")
	if _, _, err := runCLI(t, []string{"swap", input, "-o", target}, env.configPath); err != nil {
		t.Fatalf("swap -o: %v", err)
	}
	fromFile, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	out, _, err := runCLI(t, []string{"swap", input, "-o", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("swap -o -: %v", err)
	}
	if !bytes.Equal([]byte(out), fromFile) {
		t.Fatal("stdout output differs from file output")
	}
}

func TestSwapGrayscaleFails(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := testsupport.WriteBMP(t, env.baseDir, "gray.bmp", testsupport.Grayscale(4, 4))

	_, _, err := runCLI(t, []string{"swap", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "three color channels") {
		t.Fatalf("expected channel error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.baseDir, "gb_swapped_gray.bmp")); !os.IsNotExist(err) {
		t.Fatalf("no output should be written, stat err = %v", err)
	}
}

func TestSwapRejectsOtherExtensions(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := testsupport.WriteBMP(t, env.baseDir, "photo.dib", testsupport.TwoByTwo())

	if _, _, err := runCLI(t, []string{"swap", input}, env.configPath); err == nil || !strings.Contains(err.Error(), ".bmp") {
		t.Fatalf("expected extension error, got %v", err)
	}
}

func TestInfoTableAndJSON(t *testing.T) {
	dir := t.TempDir()
	rgb := testsupport.WriteBMP(t, dir, "photo.bmp", testsupport.TwoByTwo())
	gray := testsupport.WriteBMP(t, dir, "gray.bmp", testsupport.Grayscale(3, 2))

	out, _, err := runCLI(t, []string{"info", rgb}, "")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"photo.bmp", "Dimensions", "2 × 2", "Mode", "RGB", "Swappable", "yes"} {
		requireContains(t, out, want)
	}

	out, _, err = runCLI(t, []string{"info", "--json", gray}, "")
	if err != nil {
		t.Fatalf("info --json: %v", err)
	}
	var report infoReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode info json: %v", err)
	}
	if report.Swappable || report.Metadata.Mode != bitmap.ModePalette || report.Metadata.Width != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestInfoRejectsNonBitmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.bmp")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"info", path}, ""); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestServeRejectsInvalidBindOverride(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, _, err := runCLI(t, []string{"serve", "--bind", "not-an-address"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "server.bind") {
		t.Fatalf("expected bind validation error, got %v", err)
	}
}
