package socketdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		socketType, name string
		want             string
	}{
		{TypeSession, "concierge", "session.concierge.sock"},
		{TypeControl, "hub", "control.hub.sock"},
		{TypeSession, "silent-deer", "session.silent-deer.sock"},
	}
	for _, tt := range tests {
		got := Format(tt.socketType, tt.name)
		if got != tt.want {
			t.Errorf("Format(%q, %q) = %q, want %q", tt.socketType, tt.name, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		filename string
		wantType string
		wantName string
		wantOK   bool
	}{
		{"session.concierge.sock", TypeSession, "concierge", true},
		{"control.hub.sock", TypeControl, "hub", true},
		{"session.silent-deer.sock", TypeSession, "silent-deer", true},
		{"notasocket.txt", "", "", false},
		{"noperiod.sock", "", "", false},
		{".sock", "", "", false},
		{"onlyone.sock", "", "", false},
		{"session..sock", TypeSession, "", true}, // degenerate but parseable
	}
	for _, tt := range tests {
		entry, ok := Parse(tt.filename)
		if ok != tt.wantOK {
			t.Errorf("Parse(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if entry.Type != tt.wantType {
			t.Errorf("Parse(%q).Type = %q, want %q", tt.filename, entry.Type, tt.wantType)
		}
		if entry.Name != tt.wantName {
			t.Errorf("Parse(%q).Name = %q, want %q", tt.filename, entry.Name, tt.wantName)
		}
	}
}

func TestDir_WSHDHomeOverride(t *testing.T) {
	t.Setenv("WSHD_HOME", "/tmp/custom-wshd")
	got := Dir()
	want := filepath.Join("/tmp/custom-wshd", "sockets")
	if got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("WSHD_HOME", t.TempDir())
	got := Path(TypeSession, "concierge")
	want := filepath.Join(Dir(), "session.concierge.sock")
	if got != want {
		t.Errorf("Path(session, concierge) = %q, want %q", got, want)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "session.concierge.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "control.hub.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "session.worker.sock"), nil, 0o600)

	t.Run("single match", func(t *testing.T) {
		path, err := FindIn(dir, "concierge")
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(dir, "session.concierge.sock")
		if path != want {
			t.Errorf("Find(concierge) = %q, want %q", path, want)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := FindIn(dir, "nonexistent")
		if err == nil {
			t.Fatal("expected error for no match")
		}
	})

	t.Run("ambiguous match", func(t *testing.T) {
		os.WriteFile(filepath.Join(dir, "session.dup.sock"), nil, 0o600)
		os.WriteFile(filepath.Join(dir, "control.dup.sock"), nil, 0o600)
		_, err := FindIn(dir, "dup")
		if err == nil {
			t.Fatal("expected error for ambiguous match")
		}
	})
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "session.concierge.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "control.hub.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "session.worker.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "random.txt"), nil, 0o600)      // ignored
	os.WriteFile(filepath.Join(dir, "old-format.sock"), nil, 0o600) // ignored (no type.name format)

	entries, err := ListIn(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}

	types := make(map[string]int)
	for _, e := range entries {
		types[e.Type]++
		if e.Path == "" {
			t.Error("entry has empty Path")
		}
	}
	if types[TypeSession] != 2 {
		t.Errorf("expected 2 session entries, got %d", types[TypeSession])
	}
	if types[TypeControl] != 1 {
		t.Errorf("expected 1 control entry, got %d", types[TypeControl])
	}
}

func TestListByType(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "session.concierge.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "control.hub.sock"), nil, 0o600)
	os.WriteFile(filepath.Join(dir, "session.worker.sock"), nil, 0o600)

	sessions, err := ListByTypeIn(dir, TypeSession)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}

	controls, err := ListByTypeIn(dir, TypeControl)
	if err != nil {
		t.Fatal(err)
	}
	if len(controls) != 1 {
		t.Errorf("expected 1 control, got %d", len(controls))
	}
}

func TestListIn_EmptyDir(t *testing.T) {
	entries, err := ListIn(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestListIn_NonexistentDir(t *testing.T) {
	entries, err := ListIn("/nonexistent/path")
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil, got %v", entries)
	}
}

func TestDir_DefaultUnderHome(t *testing.T) {
	t.Setenv("WSHD_HOME", "")
	home := os.Getenv("HOME")
	dir := Dir()
	if !strings.HasPrefix(dir, home) || !strings.HasSuffix(dir, "sockets") {
		t.Errorf("Dir() = %q, expected under HOME and ending with 'sockets'", dir)
	}
}
