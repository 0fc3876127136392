package dataset

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// TrapQuestion is one adversarial topic designed to induce a hallucinated
// claim. Only Question is consumed by the experiment flow; the remaining
// columns are informational.
type TrapQuestion struct {
	Question   string
	Difficulty string
	Category   string
	TrapType   string
}

// Source holds a loaded trap-question dataset.
type Source struct {
	questions []TrapQuestion
}

// Load reads a trap-question CSV. The header must contain a Question column;
// if it does not, the first column is used, matching the dataset generator's
// output. A missing file surfaces as an os.ErrNotExist-wrapped error so
// callers can fall back to free-text topic entry.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	col := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	qIdx := col("Question")
	if qIdx < 0 {
		qIdx = 0
	}
	dIdx := col("Difficulty")
	cIdx := col("Category")
	tIdx := col("Trap_Type")

	field := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var questions []TrapQuestion
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		q := field(row, qIdx)
		if q == "" {
			continue
		}
		questions = append(questions, TrapQuestion{
			Question:   q,
			Difficulty: field(row, dIdx),
			Category:   field(row, cIdx),
			TrapType:   field(row, tIdx),
		})
	}

	return &Source{questions: questions}, nil
}

// All returns every loaded question, for selection lists.
func (s *Source) All() []TrapQuestion {
	return s.questions
}

// Len returns the number of loaded questions.
func (s *Source) Len() int {
	return len(s.questions)
}

// Random picks one question uniformly at random.
func (s *Source) Random() (TrapQuestion, error) {
	if len(s.questions) == 0 {
		return TrapQuestion{}, fmt.Errorf("dataset contains no questions")
	}
	return s.questions[rand.Intn(len(s.questions))], nil
}
