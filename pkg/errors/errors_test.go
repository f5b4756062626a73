package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
		{code: CodeNotAssigned, status: http.StatusForbidden},
		{code: CodeAlreadyAssigned, status: http.StatusConflict},
		{code: CodeNotAvailable, status: http.StatusConflict, detailsOK: true},
		{code: CodeInvalidStatus, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodePhotoRequired, status: http.StatusBadRequest},
		{code: CodeOutOfServiceArea, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeDuplicate, status: http.StatusConflict},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsAndHasCodeFollowWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeAlreadyAssigned, "taken"))
	if got := As(err); got == nil || got.Code() != CodeAlreadyAssigned {
		t.Fatalf("As failed to return typed error")
	}
	require.True(t, HasCode(err, CodeAlreadyAssigned))
	require.False(t, HasCode(err, CodeNotAvailable))
	require.False(t, HasCode(nil, CodeNotAvailable))
	require.Nil(t, As(nil))
}

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "reviews_order_buyer_key", Table: "reviews"}
	dump := Dump(Wrap(CodeDuplicate, pqErr, "insert review"))

	require.Equal(t, CodeDuplicate, dump.Code)
	require.Equal(t, "23505", dump.PGCode)
	require.Equal(t, "reviews_order_buyer_key", dump.PGConstraint)
	require.Len(t, dump.Chain, 2)
}
