package claude

import (
	"testing"
	"time"

	"recap/internal/session"
)

func TestDecodeProjectPath(t *testing.T) {
	cases := map[string]string{
		"-home-user-code-myapp": "/home/user/code/myapp",
		"home-user-code-myapp":  "/home/user/code/myapp",
	}
	for in, want := range cases {
		if got := DecodeProjectPath(in); got != want {
			t.Errorf("DecodeProjectPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBundleByProjectDay_GroupsMeaningfulEventsOnly(t *testing.T) {
	day1 := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 27, 9, 0, 0, 0, time.UTC)

	sessions := []parsedSession{
		{
			SessionID:   "s1",
			ProjectPath: "/p",
			Events: []session.Event{
				{Role: session.RoleUser, Timestamp: day1, Content: session.Content{Text: "please fix the login bug"}},
				{Role: session.RoleUser, Timestamp: day1, Content: session.Content{Text: "warmup"}},
				{Role: session.RoleUser, Timestamp: day2, Content: session.Content{Text: "add another feature today"}},
			},
		},
	}

	bundles := bundleByProjectDay(sessions)
	if len(bundles) != 2 {
		t.Fatalf("expected 2 day bundles, got %d", len(bundles))
	}
	if len(bundles[0].Events) != 1 {
		t.Fatalf("expected warmup message excluded, got %d events", len(bundles[0].Events))
	}
}
