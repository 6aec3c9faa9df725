package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRuntimeFilesClaimAndRelease(t *testing.T) {
	f := runtimeFiles(filepath.Join(t.TempDir(), "run", "ratewatchd.pid"))

	if err := f.ensureFree(); err != nil {
		t.Fatalf("ensureFree on empty dir: %v", err)
	}

	rt := daemonRuntime{PID: os.Getpid(), Addr: "127.0.0.1:9999", StartedAt: time.Now().UTC()}
	if err := f.claim(rt); err != nil {
		t.Fatal(err)
	}
	pid, err := f.pid()
	if err != nil || pid != os.Getpid() {
		t.Fatalf("pid = %d, %v", pid, err)
	}
	if got := f.runtime(); got.Addr != rt.Addr {
		t.Errorf("runtime addr = %q", got.Addr)
	}

	// Our own pid is alive, so the files are taken.
	if err := f.ensureFree(); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("ensureFree = %v, want already running", err)
	}

	f.release()
	if _, err := os.Stat(f.statePath()); !os.IsNotExist(err) {
		t.Errorf("state file still present: %v", err)
	}
}

func TestRuntimeFilesInvalidPID(t *testing.T) {
	f := runtimeFiles(filepath.Join(t.TempDir(), "ratewatchd.pid"))
	if err := os.WriteFile(f.pidPath(), []byte("nope\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.pid(); err == nil {
		t.Fatal("expected error for garbage pid")
	}
}

func TestChildArgs(t *testing.T) {
	got := childArgs([]string{"daemon", "--detach", "--addr", ":1", "--detach=true"})
	want := []string{"daemon", "--addr", ":1", "--child"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("childArgs = %v, want %v", got, want)
	}
}
