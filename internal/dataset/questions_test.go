package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traps.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoad_FullDataset(t *testing.T) {
	path := writeDataset(t, `Question,Difficulty,Category,Trap_Type
"Who won the 1904 Antarctica War?",Hard,Fake Historical Events,Invented Event
"What are the properties of Element 125?",Medium,Fake Scientific Facts,Invented Fact
`)

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if src.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", src.Len())
	}

	all := src.All()
	if all[0].Question != "Who won the 1904 Antarctica War?" {
		t.Errorf("unexpected first question: %q", all[0].Question)
	}
	if all[0].Difficulty != "Hard" || all[0].Category != "Fake Historical Events" || all[0].TrapType != "Invented Event" {
		t.Errorf("unexpected informational columns: %+v", all[0])
	}
}

func TestLoad_MissingQuestionColumnFallsBackToFirst(t *testing.T) {
	path := writeDataset(t, `Prompt,Notes
"Who directed the sequel to Titanic?",tricky
`)

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if src.Len() != 1 {
		t.Fatalf("expected 1 question, got %d", src.Len())
	}
	if src.All()[0].Question != "Who directed the sequel to Titanic?" {
		t.Errorf("unexpected question: %q", src.All()[0].Question)
	}
}

func TestLoad_SkipsBlankQuestions(t *testing.T) {
	path := writeDataset(t, `Question,Difficulty,Category,Trap_Type
"A real question",Easy,Real but Obscure Facts,Obscure
"",Easy,Real but Obscure Facts,Obscure
`)

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if src.Len() != 1 {
		t.Errorf("expected blank question skipped, got %d questions", src.Len())
	}
}

func TestLoad_MissingFileIsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist so callers can fall back, got %v", err)
	}
}

func TestRandom(t *testing.T) {
	path := writeDataset(t, `Question,Difficulty,Category,Trap_Type
q1,Easy,C,T
q2,Easy,C,T
q3,Easy,C,T
`)

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	valid := map[string]bool{"q1": true, "q2": true, "q3": true}
	for i := 0; i < 20; i++ {
		q, err := src.Random()
		if err != nil {
			t.Fatalf("Random failed: %v", err)
		}
		if !valid[q.Question] {
			t.Errorf("Random returned question outside dataset: %q", q.Question)
		}
	}
}

func TestRandom_EmptySource(t *testing.T) {
	path := writeDataset(t, "Question,Difficulty,Category,Trap_Type\n")

	src, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := src.Random(); err == nil {
		t.Error("expected error for empty dataset")
	}
}
