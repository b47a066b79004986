package service

import (
	"errors"
	"testing"
	"time"

	"github.com/crmforge/approval-engine/internal/domain/entity"
)

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 15, 9, 30, 0, 123456789, time.UTC)
	cursor := encodeCursor(created, 42)

	gotTime, gotID, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("decodeCursor returned error: %v", err)
	}
	if !gotTime.Equal(created) {
		t.Errorf("time = %v, want %v", gotTime, created)
	}
	if gotID != 42 {
		t.Errorf("id = %d, want 42", gotID)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"no separator", "MTIzNDU2"},           // "123456"
		{"bad nanos", "YWJjOjQy"},              // "abc:42"
		{"bad id", "MTcwMDAwMDAwMDowYWJj"},     // "1700000000:0abc"
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decodeCursor(tc.cursor)
			if !errors.Is(err, entity.ErrInvalidCursor) {
				t.Errorf("decodeCursor(%q) = %v, want ErrInvalidCursor", tc.cursor, err)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, defaultPageSize},
		{-5, defaultPageSize},
		{1, 1},
		{100, 100},
		{500, maxPageSize},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
