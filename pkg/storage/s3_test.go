package storage

import (
	"testing"
	"time"
)

func TestTranscriptKey(t *testing.T) {
	at := time.Date(2025, time.March, 7, 9, 30, 0, 0, time.UTC)

	got := TranscriptKey("user-42", at)
	want := "transcripts/year=2025/month=03/day=07/user-42_1741339800.json"
	if got != want {
		t.Fatalf("TranscriptKey = %q, want %q", got, want)
	}
}
