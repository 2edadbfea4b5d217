package output

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mj1618/device-bridge/internal/model"
	"gopkg.in/yaml.v3"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	err = fn()
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func sampleSnapshot() model.UiSnapshot {
	return model.UiSnapshot{
		ImagePath: "/tmp/device-bridge/last_capture.png",
		Elements: []model.UiElement{
			{ID: 1, Class: "android.widget.Button", Text: "OK", Bounds: [4]int{10, 20, 100, 30}},
		},
	}
}

func TestPrintYAML(t *testing.T) {
	out := captureStdout(t, func() error { return PrintYAML(sampleSnapshot()) })

	if strings.Count(out, "\n") <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}
	var decoded model.UiSnapshot
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.ImagePath != "/tmp/device-bridge/last_capture.png" {
		t.Errorf("imagePath: got %q", decoded.ImagePath)
	}
	if len(decoded.Elements) != 1 || decoded.Elements[0].Text != "OK" {
		t.Errorf("uiTree: got %+v", decoded.Elements)
	}
}

func TestPrintJSON_Compact(t *testing.T) {
	out := captureStdout(t, func() error { return PrintJSON(sampleSnapshot()) })

	if strings.Count(out, "\n") > 1 {
		t.Errorf("compact output should be single line, got:\n%s", out)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := decoded["uiTree"]; !ok {
		t.Error("missing uiTree key")
	}
	if _, ok := decoded["imagePath"]; !ok {
		t.Error("missing imagePath key")
	}
}

func TestPrintPrettyJSON(t *testing.T) {
	out := captureStdout(t, func() error { return PrintPrettyJSON(ActionResult{X: 1, Y: 2, Completed: true}) })
	if strings.Count(out, "\n") <= 1 {
		t.Errorf("pretty output should be multi-line, got:\n%s", out)
	}
	if !strings.Contains(out, `  "completed": true`) {
		t.Errorf("expected indented field, got:\n%s", out)
	}
}

func TestPrint_FollowsFormat(t *testing.T) {
	defer func(f Format, p bool) { OutputFormat, PrettyOutput = f, p }(OutputFormat, PrettyOutput)

	OutputFormat = FormatJSON
	out := captureStdout(t, func() error { return Print(ErrorResult{Code: "NO_SERVICE", Message: "device service inactive"}) })
	if strings.TrimSpace(out) != `{"code":"NO_SERVICE","message":"device service inactive"}` {
		t.Errorf("json: got %q", out)
	}

	OutputFormat = FormatYAML
	out = captureStdout(t, func() error { return Print(ErrorResult{Code: "NO_SERVICE", Message: "x"}) })
	if !strings.Contains(out, "code: NO_SERVICE") {
		t.Errorf("yaml: got %q", out)
	}

	OutputFormat = "xml"
	if err := Print(struct{}{}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestStatusResult_OmitEmpty(t *testing.T) {
	data, err := yaml.Marshal(StatusResult{Backend: "adb"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"device", "status", "backends"} {
		if _, ok := m[k]; ok {
			t.Errorf("empty %s should be omitted", k)
		}
	}
	if _, ok := m["active"]; !ok {
		t.Error("active should always be present")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestJSON(t *testing.T) {
	s, err := JSON([]model.UiElement{})
	if err != nil {
		t.Fatal(err)
	}
	if s != "[]" {
		t.Errorf("got %q, want []", s)
	}
}
