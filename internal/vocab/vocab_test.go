package vocab

import "testing"

func testVocabulary() *Vocabulary {
	return New(
		[]string{"mind blown", "Finally Clicked"},
		[]string{"claude", "chatgpt", "llm"},
		[]ToolMapping{
			{Keywords: []string{"claude", "anthropic"}, Label: "Claude"},
			{Keywords: []string{"chatgpt", "openai"}, Label: "ChatGPT"},
		},
		"",
	)
}

func TestPredicatesAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	v := testVocabulary()
	if !v.HasAhaSignal("It FINALLY clicked for me") {
		t.Fatalf("expected aha signal")
	}
	if v.HasAhaSignal("nothing to see") {
		t.Fatalf("unexpected aha signal")
	}
	if !v.HasAIMention("Using an LLM daily") {
		t.Fatalf("expected ai mention")
	}
	if v.HasAIMention("a post about gardening") {
		t.Fatalf("unexpected ai mention")
	}
}

func TestToolForUsesFirstMatchingMapping(t *testing.T) {
	t.Parallel()

	v := testVocabulary()
	cases := map[string]string{
		"ChatGPT vs Claude":     "Claude",
		"openai shipped a tool": "ChatGPT",
		"a local llm":           "General",
	}
	for text, want := range cases {
		if got := v.ToolFor(text); got != want {
			t.Fatalf("ToolFor(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestAdmitByMode(t *testing.T) {
	t.Parallel()

	v := testVocabulary()
	plain := FullText("Claude wrote my tests", "")
	signal := FullText("Mind blown", "claude refactored everything")

	if !v.Admit(false, plain) {
		t.Fatalf("search mode should only need an ai mention")
	}
	if v.Admit(true, plain) {
		t.Fatalf("listing mode should require an aha signal")
	}
	if !v.Admit(true, signal) {
		t.Fatalf("listing mode should admit text with both predicates")
	}
	if v.Admit(false, "mind blown by a sunset") {
		t.Fatalf("no ai mention must never be admitted")
	}
}

func TestNewCopiesInputs(t *testing.T) {
	t.Parallel()

	phrases := []string{"eureka"}
	v := New(phrases, []string{"claude"}, nil, "Other")
	phrases[0] = "changed"

	if !v.HasAhaSignal("eureka!") {
		t.Fatalf("vocabulary must not alias caller slices")
	}
	if got := v.ToolFor("claude"); got != "Other" {
		t.Fatalf("expected custom default tool, got %q", got)
	}
}
