package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestHandleMessage_WritesAuditLine(t *testing.T) {
    // handleMessage appends to logs/ relative to the working directory.
    dir := t.TempDir()
    old, err := os.Getwd()
    if err != nil {
        t.Fatalf("Getwd: %v", err)
    }
    if err := os.Chdir(dir); err != nil {
        t.Fatalf("Chdir: %v", err)
    }
    t.Cleanup(func() { _ = os.Chdir(old) })

    ev := SignCompletedEvent{
        SignRecordID:      "r1",
        ProjectID:         "P1",
        UserID:            "U1",
        FileID:            "F1",
        MetaCode:          "M1",
        SignatureSequence: 3,
        ReusedSignatureID: "sig-1",
        ConfirmedAt:       "2026-01-02T03:04:05Z",
    }
    body, err := json.Marshal(ev)
    if err != nil {
        t.Fatalf("Marshal: %v", err)
    }
    if err := handleMessage(body); err != nil {
        t.Fatalf("handleMessage: %v", err)
    }

    bs, err := os.ReadFile(filepath.Join(dir, "logs", "sign.log"))
    if err != nil {
        t.Fatalf("ReadFile: %v", err)
    }
    line := string(bs)
    for _, want := range []string{"record=r1", "project=P1", "user=U1", "file=F1", "seq=3", "reused_signature=sig-1"} {
        if !strings.Contains(line, want) {
            t.Fatalf("audit line missing %q: %s", want, line)
        }
    }

    // A second event appends rather than truncates.
    ev.SignRecordID = "r2"
    ev.ReusedSignatureID = ""
    body, _ = json.Marshal(ev)
    if err := handleMessage(body); err != nil {
        t.Fatalf("handleMessage: %v", err)
    }
    bs, _ = os.ReadFile(filepath.Join(dir, "logs", "sign.log"))
    if got := strings.Count(string(bs), "Sign completed"); got != 2 {
        t.Fatalf("expected 2 audit lines, got %d", got)
    }
    if !strings.Contains(string(bs), "reused_signature=-") {
        t.Fatalf("expected dash placeholder for missing reuse id: %s", bs)
    }
}

func TestHandleMessage_MalformedBody(t *testing.T) {
    if err := handleMessage([]byte("not json")); err == nil {
        t.Fatalf("expected error for malformed body")
    }
}
