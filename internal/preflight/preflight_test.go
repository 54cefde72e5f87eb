package preflight

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if result := CheckExecutable("exe", path); !result.Passed {
		t.Fatalf("executable check failed: %s", result.Detail)
	}
	if result := CheckExecutable("exe", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing executable must fail")
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if result := CheckExecutable("exe", plain); result.Passed {
		t.Fatal("non-executable file must fail")
	}
}

func TestCheckDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soundlist.spl")
	if err := os.WriteFile(path, []byte("<Soundlist/>"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if result := CheckDocument("doc", path); !result.Passed {
		t.Fatalf("document check failed: %s", result.Detail)
	}
	if result := CheckDocument("doc", filepath.Join(dir, "missing.spl")); result.Passed {
		t.Fatal("missing document must fail")
	}
	if result := CheckDocument("doc", dir); result.Passed {
		t.Fatal("directory must fail the document check")
	}
	if result := CheckDocument("doc", ""); result.Passed {
		t.Fatal("unconfigured document must fail")
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("data", dir); !result.Passed {
		t.Fatalf("directory check failed: %s", result.Detail)
	}
	if result := CheckDirectoryAccess("data", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing directory must fail")
	}
}

func TestCheckDiskHeadroom(t *testing.T) {
	result := CheckDiskHeadroom("disk", filepath.Join(t.TempDir(), "soundlist.spl"))
	if !result.Passed {
		t.Fatalf("headroom check failed on temp filesystem: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "MiB free") {
		t.Fatalf("detail = %q", result.Detail)
	}
}

func TestCheckControlChannel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	result := CheckControlChannel(context.Background(), "ctl", listener.Addr().String())
	if !result.Passed || !strings.Contains(result.Detail, "reachable") {
		t.Fatalf("result = %+v", result)
	}

	// A closed port still passes, flagged as likely stopped.
	down := CheckControlChannel(context.Background(), "ctl", "127.0.0.1:1")
	if !down.Passed || !strings.Contains(down.Detail, "stopped") {
		t.Fatalf("result = %+v", down)
	}
}

func TestCheckControlChannelUnixSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "board.sock")
	listener, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	result := CheckControlChannel(context.Background(), "ctl", socket)
	if !result.Passed || strings.Contains(result.Detail, "stopped") {
		t.Fatalf("unix control socket should probe as reachable: %+v", result)
	}
}

func TestPassed(t *testing.T) {
	if !Passed([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("all passing set must pass")
	}
	if Passed([]Result{{Passed: true}, {}}) {
		t.Fatal("one failure must fail the set")
	}
}
