package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"flashdeck/internal/normalize"
	"flashdeck/internal/services"
)

// backendFunc adapts a function to the Backend interface.
type backendFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f backendFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

func section(title string, lines ...string) normalize.Section {
	chars := 0
	for _, line := range lines {
		chars += len(line) + 1
	}
	return normalize.Section{Title: title, Lines: lines, RenderedChars: chars}
}

func cardsJSON(pairs ...string) string {
	if len(pairs)%2 != 0 {
		panic("cardsJSON needs front/back pairs")
	}
	var items []string
	for i := 0; i < len(pairs); i += 2 {
		items = append(items, fmt.Sprintf(`{"front": %q, "back": %q}`, pairs[i], pairs[i+1]))
	}
	return `{"cards": [` + strings.Join(items, ", ") + `]}`
}

// conceptFromPrompt pulls the concept title back out of a user prompt.
func conceptFromPrompt(userPrompt string) string {
	for _, line := range strings.Split(userPrompt, "\n") {
		if after, ok := strings.CutPrefix(line, "Concept: "); ok {
			return after
		}
	}
	return ""
}

func TestRunHappyPath(t *testing.T) {
	backend := backendFunc(func(_ context.Context, _, userPrompt string) (string, error) {
		switch conceptFromPrompt(userPrompt) {
		case "Glycolysis":
			return cardsJSON("What splits glucose?", "Glycolysis"), nil
		case "Krebs Cycle":
			return cardsJSON("Where does the Krebs cycle run?", "In the mitochondrial matrix"), nil
		}
		return "", errors.New("unexpected concept")
	})

	o := New(backend, nil, Options{CardsPerConcept: 1})
	cards, outcomes, err := o.Run(context.Background(), "Bio", []normalize.Section{
		section("Glycolysis", "notes"),
		section("Krebs Cycle", "notes"),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	for i, outcome := range outcomes {
		if outcome.Skipped || outcome.Accepted != 1 || outcome.Attempts != 1 {
			t.Errorf("outcome %d = %+v", i, outcome)
		}
	}
	if cards[0].Concept != "Glycolysis" || cards[1].Concept != "Krebs Cycle" {
		t.Errorf("card order: %q, %q", cards[0].Concept, cards[1].Concept)
	}
	if cards[0].Signature == "" {
		t.Error("signature not assigned")
	}
}

func TestRunPreservesDocumentOrderAcrossCompletionOrder(t *testing.T) {
	// The first concept blocks until the second has answered, so completion
	// order is reversed relative to document order.
	secondDone := make(chan struct{})
	backend := backendFunc(func(ctx context.Context, _, userPrompt string) (string, error) {
		switch conceptFromPrompt(userPrompt) {
		case "First":
			select {
			case <-secondDone:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return cardsJSON("Q1", "A1"), nil
		case "Second":
			defer close(secondDone)
			return cardsJSON("Q2", "A2"), nil
		}
		return "", errors.New("unexpected concept")
	})

	o := New(backend, nil, Options{CardsPerConcept: 1, Workers: 2})
	cards, _, err := o.Run(context.Background(), "Deck", []normalize.Section{
		section("First", "x"),
		section("Second", "y"),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 2 || cards[0].Front != "Q1" || cards[1].Front != "Q2" {
		t.Fatalf("cards out of document order: %+v", cards)
	}
}

func TestRunRetriesMalformedThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	sawReminder := false
	backend := backendFunc(func(_ context.Context, _, userPrompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return "Sure! Here are your flashcards:", nil
		}
		if strings.Contains(userPrompt, "could not be parsed") {
			sawReminder = true
		}
		return cardsJSON("Q", "A"), nil
	})

	o := New(backend, nil, Options{CardsPerConcept: 1, MaxRetries: 2})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if outcomes[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcomes[0].Attempts)
	}
	if !sawReminder {
		t.Error("retry prompt missing the parse reminder")
	}
}

func TestRunSkipsConceptAfterRetryBudget(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return "not json at all", nil
	})

	o := New(backend, nil, Options{CardsPerConcept: 1, MaxRetries: 2})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards, got %d", len(cards))
	}
	if calls != 3 {
		t.Errorf("backend called %d times, want 3", calls)
	}
	outcome := outcomes[0]
	if !outcome.Skipped || outcome.Attempts != 3 {
		t.Errorf("outcome = %+v", outcome)
	}
	if !errors.Is(outcome.Err, services.ErrMalformedGeneration) {
		t.Errorf("outcome error = %v, want malformed generation", outcome.Err)
	}
}

func TestRunDeduplicatesAcrossConcepts(t *testing.T) {
	backend := backendFunc(func(_ context.Context, _, userPrompt string) (string, error) {
		switch conceptFromPrompt(userPrompt) {
		case "A":
			return cardsJSON("What is **ATP**?", "Adenosine triphosphate"), nil
		case "B":
			// Same content up to formatting and case.
			return cardsJSON("what is atp?", "adenosine  triphosphate"), nil
		}
		return "", errors.New("unexpected concept")
	})

	o := New(backend, nil, Options{CardsPerConcept: 1})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{
		section("A", "x"),
		section("B", "y"),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card after dedup, got %d", len(cards))
	}
	if cards[0].Concept != "A" {
		t.Errorf("kept card from %q, want first occurrence", cards[0].Concept)
	}
	if outcomes[1].Duplicates != 1 || outcomes[1].Accepted != 0 {
		t.Errorf("outcome B = %+v", outcomes[1])
	}
}

func TestRunSkipsConceptOnShortCount(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return cardsJSON("Q1", "A1"), nil
	})

	o := New(backend, nil, Options{CardsPerConcept: 3, MaxRetries: 1})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards from a short response, got %d", len(cards))
	}
	if calls != 2 {
		t.Errorf("backend called %d times, want 2", calls)
	}
	outcome := outcomes[0]
	if !outcome.Skipped || outcome.Attempts != 2 {
		t.Errorf("outcome = %+v", outcome)
	}
	if !errors.Is(outcome.Err, services.ErrValidation) {
		t.Errorf("outcome error = %v, want validation error", outcome.Err)
	}
}

func TestRunRetriesExcessCountThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	sawReminder := false
	backend := backendFunc(func(_ context.Context, _, userPrompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return cardsJSON("Q1", "A1", "Q2", "A2", "Q3", "A3"), nil
		}
		if strings.Contains(userPrompt, "exactly the requested number") {
			sawReminder = true
		}
		return cardsJSON("Q1", "A1", "Q2", "A2"), nil
	})

	o := New(backend, nil, Options{CardsPerConcept: 2, MaxRetries: 1})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if outcomes[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcomes[0].Attempts)
	}
	if !sawReminder {
		t.Error("retry prompt missing the card count reminder")
	}
}

func TestRunAcceptsBareArrayPayload(t *testing.T) {
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		return `[{"front": "Q", "back": "A"}]`, nil
	})
	o := New(backend, nil, Options{CardsPerConcept: 1})
	cards, _, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 1 {
		t.Errorf("expected 1 card, got %d", len(cards))
	}
}

func TestRunRejectsEmptyFields(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return cardsJSON("Q", "   "), nil
		}
		return cardsJSON("Q", "A"), nil
	})
	o := New(backend, nil, Options{CardsPerConcept: 1, MaxRetries: 1})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 1 || outcomes[0].Attempts != 2 {
		t.Errorf("cards=%d attempts=%d", len(cards), outcomes[0].Attempts)
	}
}

func TestRunClipsOverlongFields(t *testing.T) {
	long := strings.Repeat("x", 500)
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		return cardsJSON("Q", long), nil
	})
	o := New(backend, nil, Options{CardsPerConcept: 1, MaxFieldLength: 100})
	cards, _, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := len([]rune(cards[0].Back)); got > 100 {
		t.Errorf("back length = %d, want <= 100", got)
	}
}

func TestRunBackendFailureSkipsWithoutRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return "", errors.New("connection refused")
	})
	o := New(backend, nil, Options{CardsPerConcept: 1, MaxRetries: 2})
	cards, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 0 || !outcomes[0].Skipped {
		t.Fatalf("expected skip, got cards=%d outcome=%+v", len(cards), outcomes[0])
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestRunCancelledContextSkipsEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := backendFunc(func(ctx context.Context, _, _ string) (string, error) {
		return "", ctx.Err()
	})
	o := New(backend, nil, Options{})
	cards, outcomes, err := o.Run(ctx, "Deck", []normalize.Section{section("Topic", "x")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected no cards, got %d", len(cards))
	}
	if !outcomes[0].Skipped || !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Errorf("outcome = %+v, want skip on cancellation", outcomes[0])
	}
}

func TestRunCancellationKeepsCompletedConcepts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	backend := backendFunc(func(_ context.Context, _, userPrompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if conceptFromPrompt(userPrompt) == "First" {
			cancel()
			return cardsJSON("Q1", "A1"), nil
		}
		return "", errors.New("dispatched after cancellation")
	})

	o := New(backend, nil, Options{CardsPerConcept: 1, Workers: 1})
	cards, outcomes, err := o.Run(ctx, "Deck", []normalize.Section{
		section("First", "x"),
		section("Second", "y"),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
	if len(cards) != 1 || cards[0].Front != "Q1" {
		t.Fatalf("completed concept lost: %+v", cards)
	}
	if outcomes[0].Skipped || outcomes[0].Accepted != 1 {
		t.Errorf("first outcome = %+v", outcomes[0])
	}
	if !outcomes[1].Skipped || !errors.Is(outcomes[1].Err, context.Canceled) {
		t.Errorf("second outcome = %+v, want skip on cancellation", outcomes[1])
	}
}

func TestRunMarksTruncatedOutcome(t *testing.T) {
	backend := backendFunc(func(_ context.Context, _, _ string) (string, error) {
		return cardsJSON("Q", "A"), nil
	})
	o := New(backend, nil, Options{CardsPerConcept: 2})
	sec := section("Topic", "kept")
	sec.Truncated = true
	sec.DroppedChars = sec.RenderedChars

	_, outcomes, err := o.Run(context.Background(), "Deck", []normalize.Section{sec})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !outcomes[0].Truncated {
		t.Error("outcome does not carry the truncation flag")
	}
	if outcomes[0].Requested != 1 {
		t.Errorf("requested = %d, want scaled-down 1", outcomes[0].Requested)
	}
}

func TestRequestedCards(t *testing.T) {
	tests := []struct {
		name    string
		base    int
		section normalize.Section
		want    int
	}{
		{
			name:    "full section keeps base",
			base:    3,
			section: normalize.Section{RenderedChars: 100},
			want:    3,
		},
		{
			name:    "half truncated scales down",
			base:    4,
			section: normalize.Section{Truncated: true, RenderedChars: 100, DroppedChars: 100},
			want:    2,
		},
		{
			name:    "heavy truncation floors at one",
			base:    3,
			section: normalize.Section{Truncated: true, RenderedChars: 10, DroppedChars: 990},
			want:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requestedCards(tt.base, tt.section); got != tt.want {
				t.Errorf("requestedCards() = %d, want %d", got, tt.want)
			}
		})
	}
}
