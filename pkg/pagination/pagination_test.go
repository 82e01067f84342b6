package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPageSizeBounds(t *testing.T) {
	if got := (Params{}).PageSize(); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := (Params{Limit: 1000}).PageSize(); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := (Params{Limit: 10}).FetchSize(); got != 11 {
		t.Fatalf("expected fetch size 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Microsecond), ID: uuid.New()}
	decoded, err := Decode(cursor.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) || decoded.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, cursor)
	}
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	if cursor, err := Decode(""); err != nil || cursor != nil {
		t.Fatalf("empty cursor should decode to nil, got %v %v", cursor, err)
	}
	if _, err := Decode("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := Decode("aGVsbG8="); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
