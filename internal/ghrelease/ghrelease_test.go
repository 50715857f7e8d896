package ghrelease

import (
	"os"
	"testing"
)

func TestNormalizedVersionStripsLeadingV(t *testing.T) {
	r := Release{TagName: "v1.2.3"}
	if got := r.NormalizedVersion(); got != "1.2.3" {
		t.Fatalf("NormalizedVersion() = %q, want 1.2.3", got)
	}
}

func TestNormalizedVersionNoLeadingV(t *testing.T) {
	r := Release{TagName: "1.2.3"}
	if got := r.NormalizedVersion(); got != "1.2.3" {
		t.Fatalf("NormalizedVersion() = %q, want 1.2.3", got)
	}
}

func TestCacheStoreRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "ghcache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store := NewCacheStore(dir)
	rel := &Release{TagName: "v2.0", VersionString: "2.0"}
	if err := store.Save("owner/repo", rel); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load("owner/repo")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.VersionString != "2.0" {
		t.Fatalf("Load() = %+v, want VersionString 2.0", got)
	}
}

func TestCacheStoreLoadMissingReturnsNil(t *testing.T) {
	dir, err := os.MkdirTemp("", "ghcache")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store := NewCacheStore(dir)
	got, err := store.Load("nothing/here")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("Load() = %+v, want nil", got)
	}
}
