package deliverable

import (
	"errors"
	"testing"

	"github.com/nourx/nourx/internal/domain"
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusDelivered, true},
		{StatusDelivered, StatusApproved, true},
		{StatusDelivered, StatusRevisionRequested, true},
		{StatusPending, StatusApproved, false},
		{StatusApproved, StatusDelivered, false},
		{StatusRevisionRequested, StatusDelivered, false},
	}
	for _, tc := range cases {
		if got := domain.CanTransition(Transitions, tc.from, tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestValidateCreateRequest(t *testing.T) {
	valid := CreateRequest{
		ProjectID: "p1",
		Name:      "design-mockups",
		FileName:  "mockups-v1.pdf",
		Content:   []byte("pdf bytes"),
	}
	if err := ValidateCreateRequest(valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"missing project", CreateRequest{Name: "x", FileName: "f", Content: []byte("b")}},
		{"missing name", CreateRequest{ProjectID: "p1", FileName: "f", Content: []byte("b")}},
		{"missing file name", CreateRequest{ProjectID: "p1", Name: "x", Content: []byte("b")}},
		{"path traversal", CreateRequest{ProjectID: "p1", Name: "x", FileName: "../../etc/passwd", Content: []byte("b")}},
		{"empty content", CreateRequest{ProjectID: "p1", Name: "x", FileName: "f"}},
	}
	for _, tc := range cases {
		if err := ValidateCreateRequest(tc.req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}
}
