package antigravity

import "testing"

func TestParseConnectionFromCommandLine_ServerPort(t *testing.T) {
	line := "/opt/antigravity/language_server_linux --csrf_token=abc123 --server_port=9001 --other=x"
	conn, ok := parseConnectionFromCommandLine(line)
	if !ok {
		t.Fatal("expected connection to parse")
	}
	if conn.Port != 9001 || conn.CSRFToken != "abc123" {
		t.Fatalf("got %+v", conn)
	}
}

func TestParseConnectionFromCommandLine_ExtensionPortFallback(t *testing.T) {
	line := "/opt/antigravity/language_server_macos --csrf_token=xyz --extension_server_port=8000"
	conn, ok := parseConnectionFromCommandLine(line)
	if !ok {
		t.Fatal("expected connection to parse")
	}
	if conn.Port != 8001 {
		t.Fatalf("expected extension_server_port+1 fallback, got %d", conn.Port)
	}
}

func TestParseConnectionFromCommandLine_MissingToken(t *testing.T) {
	line := "/opt/antigravity/language_server_linux --server_port=9001"
	if _, ok := parseConnectionFromCommandLine(line); ok {
		t.Fatal("expected parse to fail without csrf token")
	}
}
