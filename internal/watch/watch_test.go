package watch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/hugentobler/ralph/internal/claude"
	_ "github.com/hugentobler/ralph/internal/codex"
	_ "github.com/hugentobler/ralph/internal/pi"

	"github.com/hugentobler/ralph/internal/config"
	"github.com/hugentobler/ralph/internal/model"
)

const sentinel = "<promise>DONE</promise>"

func testConfig(provider model.Provider) config.Config {
	return config.Config{
		Sentinel:        sentinel,
		SuccessExitCode: 10,
		Provider:        provider,
	}
}

func runWith(t *testing.T, cfg config.Config, input string) (code int, out, status string) {
	t.Helper()

	var outBuf, statusBuf bytes.Buffer
	code, err := Run(Options{
		Config: cfg,
		In:     strings.NewReader(input),
		Out:    &outBuf,
		Status: &statusBuf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return code, outBuf.String(), statusBuf.String()
}

func TestCodexCompletion(t *testing.T) {
	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderCodex), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFallbackPlainText(t *testing.T) {
	input := "noise " + sentinel + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderCodex), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "noise\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFallbackFirstMatchOnly(t *testing.T) {
	input := "first noise " + sentinel + "\n" +
		"second noise " + sentinel + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderUnknown), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "first noise\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCodexToolOutputNeverCompletes(t *testing.T) {
	input := `{"type":"item.completed","item":{"type":"command_execution","text":"echo ` + sentinel + `"}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderCodex), input)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCodexFirstMatchSurvivesLaterNonMatches(t *testing.T) {
	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n" +
		`{"type":"item.completed","item":{"type":"command_execution","text":"ls -la"}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderCodex), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestClaudeUserAndSystemNeverComplete(t *testing.T) {
	input := `{"type":"user","message":{"content":[{"type":"text","text":"` + sentinel + `"}]}}` + "\n" +
		`{"type":"system","message":{"content":"` + sentinel + `"}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderClaude), input)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestClaudeLastCompletionWins(t *testing.T) {
	input := `{"type":"assistant","message":{"content":[{"type":"text","text":"first ` + sentinel + `"}]}}` + "\n" +
		`{"type":"assistant","message":{"content":[{"type":"text","text":"final message ` + sentinel + `"}]}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderClaude), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "final message\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestClaudeToolUseBlocksIgnored(t *testing.T) {
	input := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"bash","input":{"command":"echo ` + sentinel + `"}}]}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderClaude), input)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPiAssistantMessageEndCompletes(t *testing.T) {
	input := `{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"wrapped up ` + sentinel + `"}]}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderPi), input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "wrapped up\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPiOtherRolesNeverComplete(t *testing.T) {
	input := `{"type":"message_end","message":{"role":"user","content":[{"type":"text","text":"` + sentinel + `"}]}}` + "\n"

	code, _, _ := runWith(t, testConfig(model.ProviderPi), input)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
}

func TestPiRawLogExclusions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := testConfig(model.ProviderPi)
	cfg.RawLogPath = logPath

	input := `{"type":"message_update","message":{"role":"assistant"}}` + "\n" +
		`{"type":"tool_execution_update","toolCallId":"t1"}` + "\n" +
		`{"type":"tool_execution_end","toolCallId":"t1"}` + "\n" +
		`{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"bye"}]}}` + "\n"

	runWith(t, cfg, input)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	logged := string(data)
	if strings.Contains(logged, "message_update") || strings.Contains(logged, "tool_execution_update") {
		t.Fatalf("delta events must not be logged:\n%s", logged)
	}
	if !strings.Contains(logged, "tool_execution_end") || !strings.Contains(logged, "message_end") {
		t.Fatalf("terminal events must be logged:\n%s", logged)
	}
}

func TestMalformedLinesAlwaysLogged(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := testConfig(model.ProviderPi)
	cfg.RawLogPath = logPath

	runWith(t, cfg, "not json at all\n")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "not json at all\n" {
		t.Fatalf("unexpected log contents: %q", string(data))
	}
}

func TestHeaderWithElapsedTime(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := testConfig(model.ProviderCodex)
	cfg.EmitHeader = true
	cfg.RunStartEpoch = 1_700_000_000
	cfg.RawLogPath = logPath

	var outBuf, statusBuf bytes.Buffer
	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"
	code, err := Run(Options{
		Config: cfg,
		In:     strings.NewReader(input),
		Out:    &outBuf,
		Status: &statusBuf,
		Now:    func() time.Time { return time.Unix(1_700_000_090, 0) },
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}

	want := "\n--- final output | 1:30 ---\nhello\n"
	if outBuf.String() != want {
		t.Fatalf("unexpected output: %q", outBuf.String())
	}
	if !strings.Contains(statusBuf.String(), "\r\x1b[2K") {
		t.Fatalf("status stream should carry the line clear, got %q", statusBuf.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "\n--- final output | 1:30 ---\n") {
		t.Fatalf("log should carry the header:\n%s", string(data))
	}
}

func TestHeaderWithoutRunStart(t *testing.T) {
	cfg := testConfig(model.ProviderCodex)
	cfg.EmitHeader = true

	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"
	code, out, status := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	// Line clear still fires, but no timed header without a start epoch.
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if status != "\r\x1b[2K" {
		t.Fatalf("unexpected status output: %q", status)
	}
}

func TestHeaderDisabled(t *testing.T) {
	cfg := testConfig(model.ProviderCodex)
	cfg.EmitHeader = false
	cfg.RunStartEpoch = 1_700_000_000

	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"
	code, out, status := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if status != "" {
		t.Fatalf("unexpected status output: %q", status)
	}
}

func TestAllSentinelMessageStillCompletes(t *testing.T) {
	cfg := testConfig(model.ProviderCodex)
	cfg.EmitHeader = true

	input := `{"type":"item.completed","item":{"type":"agent_message","text":"` + sentinel + `"}}` + "\n"
	code, out, status := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("all-sentinel message must produce no output, got %q", out)
	}
	if status != "" {
		t.Fatalf("empty cleaned text must not clear the status line, got %q", status)
	}
}

func TestUnknownProviderIgnoresStructuredEvents(t *testing.T) {
	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"

	code, out, _ := runWith(t, testConfig(model.ProviderUnknown), input)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAutoDetect(t *testing.T) {
	cfg := testConfig(model.ProviderUnknown)
	cfg.AutoDetect = true

	input := `{"type":"item.started","item":{"type":"agent_message"}}` + "\n" +
		`{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"

	code, out, _ := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAutoDetectAppliesExclusions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	cfg := testConfig(model.ProviderUnknown)
	cfg.AutoDetect = true
	cfg.RawLogPath = logPath

	input := `{"type":"message_update","message":{"role":"assistant"}}` + "\n" +
		`{"type":"message_end","message":{"role":"assistant","content":[{"type":"text","text":"bye ` + sentinel + `"}]}}` + "\n"

	code, out, _ := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "bye\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "message_update") {
		t.Fatalf("sniffed adapter must apply its exclusions:\n%s", string(data))
	}
}

func TestEmptyInput(t *testing.T) {
	code, out, _ := runWith(t, testConfig(model.ProviderCodex), "")
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out != "" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRawLogOpenFailureDegrades(t *testing.T) {
	cfg := testConfig(model.ProviderCodex)
	cfg.RawLogPath = filepath.Join(t.TempDir(), "missing", "run.log")

	input := `{"type":"item.completed","item":{"type":"agent_message","text":"hello ` + sentinel + `"}}` + "\n"
	code, out, status := runWith(t, cfg, input)
	if code != 10 {
		t.Fatalf("completion must survive a failed log open, got code %d", code)
	}
	if out != "hello\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(status, "warning:") {
		t.Fatalf("expected a warning on the status stream, got %q", status)
	}
}

func TestClassify(t *testing.T) {
	if _, ok := classify([]byte("plain text")); ok {
		t.Fatal("plain text must not classify")
	}
	if _, ok := classify([]byte(`[1,2,3]`)); ok {
		t.Fatal("non-object JSON must not classify")
	}
	category, ok := classify([]byte(`{"type":"assistant"}`))
	if !ok || category != "assistant" {
		t.Fatalf("unexpected classification: %q %v", category, ok)
	}
	category, ok = classify([]byte(`{"other":"field"}`))
	if !ok || category != "" {
		t.Fatalf("object without type should classify with empty category, got %q %v", category, ok)
	}
}
