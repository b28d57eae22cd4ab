package blob

import (
	"errors"
	"io"
	"testing"
)

func TestDirStoreRoundtrip(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	ref, err := s.Save(data)
	if err != nil {
		t.Fatal(err)
	}
	if ref == "" {
		t.Fatal("empty ref")
	}

	rc, err := s.Open(ref)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Fatalf("roundtrip mismatch: %v vs %v", got, data)
	}

	if err := s.Remove(ref); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open after Remove err = %v, want ErrNotFound", err)
	}
}

func TestDirStoreRejectsEmpty(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(nil); err == nil {
		t.Fatal("Save(nil) must fail")
	}
}

func TestDirStoreRejectsBadRefs(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{
		"",
		"../etc/passwd",
		"..%2Fconfig.yaml",
		"no-ulid.jpg",
		"01J0000000000000000000000",     // missing extension
		"01J0000000000000000000000.png", // wrong extension
	} {
		if _, err := s.Open(ref); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) err = %v, want ErrNotFound", ref, err)
		}
	}
}
