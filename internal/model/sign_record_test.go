package model

import "testing"

func TestSignStatusDescription(t *testing.T) {
    cases := map[SignStatus]string{
        StatusUnscanned:          "未扫描",
        StatusScannedUnconfirmed: "已扫描未签署",
        StatusSigned:             "已签署",
        StatusDeleted:            "已删除",
        SignStatus("BOGUS"):      "BOGUS",
    }
    for status, want := range cases {
        if got := status.Description(); got != want {
            t.Errorf("Description(%s) = %q, want %q", status, got, want)
        }
    }
}

func TestSignStatusValid(t *testing.T) {
    for _, status := range []SignStatus{StatusUnscanned, StatusScannedUnconfirmed, StatusSigned, StatusDeleted} {
        if !status.Valid() {
            t.Errorf("expected %s to be valid", status)
        }
    }
    if SignStatus("BOGUS").Valid() {
        t.Errorf("expected BOGUS to be invalid")
    }
}

func TestSignRecordKey(t *testing.T) {
    rec := SignRecord{ProjectID: "P1", UserID: "U1", FileID: "F1"}
    want := SessionKey{ProjectID: "P1", UserID: "U1", FileID: "F1"}
    if rec.Key() != want {
        t.Fatalf("Key() = %+v, want %+v", rec.Key(), want)
    }
}
