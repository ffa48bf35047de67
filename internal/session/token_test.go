package session

import (
	"reflect"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	want := time.Date(2012, 3, 15, 8, 0, 0, 123456789, time.UTC)
	includes := []string{"manager", EncodeToken(want), "department"}

	rest, effective, err := StripToken(includes)
	if err != nil {
		t.Fatalf("StripToken() error: %v", err)
	}
	if effective == nil || !effective.Equal(want) {
		t.Errorf("effective = %v, want %v", effective, want)
	}
	if got := []string{"manager", "department"}; !reflect.DeepEqual(rest, got) {
		t.Errorf("rest = %v, want %v", rest, got)
	}
}

func TestStripToken_NoToken(t *testing.T) {
	includes := []string{"manager", "department"}
	rest, effective, err := StripToken(includes)
	if err != nil {
		t.Fatalf("StripToken() error: %v", err)
	}
	if effective != nil {
		t.Errorf("effective = %v, want nil", effective)
	}
	if !reflect.DeepEqual(rest, includes) {
		t.Errorf("rest = %v, want %v", rest, includes)
	}
}

func TestStripToken_Malformed(t *testing.T) {
	_, _, err := StripToken([]string{TokenPrefix + "not-a-date"})
	if err == nil {
		t.Fatal("StripToken() accepted a malformed token")
	}
}

func TestStripToken_Empty(t *testing.T) {
	rest, effective, err := StripToken(nil)
	if err != nil {
		t.Fatalf("StripToken() error: %v", err)
	}
	if effective != nil || len(rest) != 0 {
		t.Errorf("StripToken(nil) = %v, %v", rest, effective)
	}
}
