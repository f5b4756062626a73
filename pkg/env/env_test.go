package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("KRISHAK_TEST_VALUE", "   ")
	if got := Get("KRISHAK_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("KRISHAK_TEST_VALUE", "set")
	if got := Get("KRISHAK_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestInstanceIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "")
	if got := InstanceID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
	t.Setenv("DYNO", "web.1")
	if got := InstanceID(); got != "web.1" {
		t.Fatalf("expected dyno name, got %q", got)
	}
	t.Setenv("WORKER_ID", "cron-2")
	if got := InstanceID(); got != "cron-2" {
		t.Fatalf("expected worker id, got %q", got)
	}
}
