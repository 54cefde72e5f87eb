package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"soundbridge/internal/config"
	"soundbridge/internal/daemon"
	"soundbridge/internal/ipc"
	"soundbridge/internal/logging"
	"soundbridge/internal/services/soundpad"
	"soundbridge/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

type fakeProc struct {
	mu      sync.Mutex
	running bool
}

func (f *fakeProc) Running(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, nil
}

func (f *fakeProc) Terminate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeProc) Kill(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeProc) Launch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

func okDialer(ctx context.Context, address string) (net.Conn, error) {
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		var command []byte
		buf := make([]byte, 256)
		for {
			n, err := server.Read(buf)
			if err != nil {
				return
			}
			for i := 0; i < n; i++ {
				if buf[i] != 0 {
					command = append(command, buf[i])
					continue
				}
				reply := "R-200"
				switch {
				case strings.HasPrefix(string(command), "GetVolume"):
					reply = "75"
				case strings.HasPrefix(string(command), "GetPlayStatus"):
					reply = "STOPPED"
				}
				command = command[:0]
				if _, err := server.Write([]byte(reply + "\x00")); err != nil {
					return
				}
			}
		}
	}()
	return client, nil
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(filepath.Dir(cfg.Board.Document), "config.toml")
	writeTestConfig(t, configPath, cfg)

	d, err := daemon.New(cfg, logging.NewNop(),
		daemon.WithProcessController(&fakeProc{running: true}),
		daemon.WithSoundpadOptions(soundpad.WithDialer(okDialer)))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(context.Background(), socketPath, d, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}

	t.Cleanup(func() {
		srv.Close()
		d.Stop()
	})

	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\ndata_dir = %q\n\n[board]\nexecutable = %q\ndocument = %q\ncontrol_address = %q\n",
		cfg.Paths.LogDir,
		cfg.Paths.DataDir,
		cfg.Board.Executable,
		cfg.Board.Document,
		cfg.Board.ControlAddress,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "Soundboard")
	requireContains(t, out, "Preflight")
}

func TestCLISoundCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sound", "add", "--url", `C:\sounds\bell.mp3`, "--tag", "bell", "--title", "Bell"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sound add: %v", err)
	}
	requireContains(t, out, `added sound "bell" as id 3`)
	requireContains(t, out, "Soundboard relaunched")

	doc := testsupport.ReadDocument(t, env.cfg.Board.Document)
	if !strings.Contains(doc, `url="C:\sounds\bell.mp3"`) {
		t.Fatalf("document missing new sound:\n%s", doc)
	}

	out, _, err = runCLI(t, []string{"sound", "attach", "Ambience", "3"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sound attach: %v", err)
	}
	requireContains(t, out, `placed id 3 in "Ambience"`)

	out, _, err = runCLI(t, []string{"sound", "detach", "3"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("sound detach: %v", err)
	}
	requireContains(t, out, "detached id 3")

	_, _, err = runCLI(t, []string{"sound", "remove", "99"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown sound id")
	}
	if !strings.Contains(err.Error(), "precondition") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCLIHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No mutations recorded")

	if _, _, err := runCLI(t, []string{"category", "move", "Ambience", "0"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("category move: %v", err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history after mutation: %v", err)
	}
	requireContains(t, out, "category_reorder")
	requireContains(t, out, "completed")
}

func TestCLIVolumeCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"volume"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("volume: %v", err)
	}
	requireContains(t, out, "Volume: 75%")

	_, _, err = runCLI(t, []string{"volume", "150"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for out-of-range volume")
	}
}

func TestCLIDialErrorMentionsDaemonStart(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(t.TempDir(), "missing.sock")
	_, _, err := runCLI(t, []string{"status"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected dial error")
	}
	if !strings.Contains(err.Error(), "soundbridge daemon start") {
		t.Fatalf("unexpected error: %v", err)
	}
}
