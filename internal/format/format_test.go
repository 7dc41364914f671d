package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteEDN_KebabKeywordsSortedKeys(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{
		"data": []map[string]any{{"memberId": "alice", "count": 3, "ratio": 0.5, "ok": true, "none": nil}},
	}
	if err := WriteEDN(&buf, v, false); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	want := `{:data [{:count 3 :member-id "alice" :none nil :ok true :ratio 0.5}]}` + "\n"
	if buf.String() != want {
		t.Fatalf("expected %q; got %q", want, buf.String())
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"a": []int{1, 2}, "b": map[string]any{}}, true); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	want := "{\n  :a [\n    1\n    2\n  ]\n  :b {}\n}\n"
	if buf.String() != want {
		t.Fatalf("expected %q; got %q", want, buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 1, "yaml", false); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error; got %v", err)
	}
	if err := Write(&buf, Envelope([]string{"x"}, nil), "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != `{"data":["x"]}`+"\n" {
		t.Fatalf("expected compact json envelope; got %q", got)
	}
}
