package timex

import (
	"testing"
	"time"
)

func TestConversions(t *testing.T) {
	if Ms(25) != 25*time.Millisecond {
		t.Fatal("Ms(25) mismatch")
	}
	if Us(180) != 180*time.Microsecond {
		t.Fatal("Us(180) mismatch")
	}
	if got := Micros(1500 * time.Nanosecond); got != 1.5 {
		t.Fatalf("Micros(1.5µs) = %v", got)
	}
}

func TestSleepInterrupted(t *testing.T) {
	done := make(chan struct{})
	close(done)
	start := time.Now()
	if Sleep(done, time.Second) {
		t.Fatal("Sleep reported completion despite closed done")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Sleep did not return promptly")
	}
	if !Sleep(nil, time.Millisecond) {
		t.Fatal("Sleep(nil, 1ms) reported interruption")
	}
}
