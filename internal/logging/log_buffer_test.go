package logging

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func messages(entries []LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Message)
	}
	return out
}

func TestLogBufferKeepsNewest(t *testing.T) {
	buffer := NewLogBuffer(2)
	for _, message := range []string{"first", "second", "third"} {
		buffer.Add(LogEntry{Message: message})
	}
	if diff := cmp.Diff([]string{"second", "third"}, messages(buffer.List())); diff != "" {
		t.Fatalf("buffer contents mismatch (-want +got):\n%s", diff)
	}
}

func TestLogBufferFindFiltersLevelAndMessage(t *testing.T) {
	buffer := NewLogBuffer(8)
	buffer.Add(LogEntry{Level: LevelInfo, Message: "command failed"})
	buffer.Add(LogEntry{Level: LevelWarning, Message: "command failed"})
	buffer.Add(LogEntry{Level: LevelError, Message: "watch backend failed"})

	if got := buffer.Find(LevelWarning, "command failed"); len(got) != 1 || got[0].Level != LevelWarning {
		t.Fatalf("expected the warning only, got %+v", got)
	}
	if diff := cmp.Diff([]string{"command failed", "watch backend failed"}, messages(buffer.Find(LevelWarning, ""))); diff != "" {
		t.Fatalf("find mismatch (-want +got):\n%s", diff)
	}
}

func TestLogBufferConcurrentAdds(t *testing.T) {
	buffer := NewLogBuffer(50)

	var wg sync.WaitGroup
	for worker := 0; worker < 10; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				buffer.Add(LogEntry{Message: "entry"})
			}
		}()
	}
	wg.Wait()

	if entries := buffer.List(); len(entries) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(entries))
	}
}

func TestLogBufferLastSkipsLowerLevels(t *testing.T) {
	buffer := NewLogBuffer(5)
	buffer.Add(LogEntry{Level: LevelWarning, Message: "old warning"})
	buffer.Add(LogEntry{Level: LevelInfo, Message: "info"})

	entry, ok := buffer.Last(LevelWarning)
	if !ok || entry.Message != "old warning" {
		t.Fatalf("expected old warning, got %q (found=%v)", entry.Message, ok)
	}
	if entry, ok := buffer.Last(LevelError); ok {
		t.Fatalf("expected no error entry, got %q", entry.Message)
	}
}
