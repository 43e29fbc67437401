package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("analyze: %w", CacheCorrupt("/tmp/c.json", "not an object", nil))

	if !errors.Is(err, ErrCacheCorrupt) {
		t.Error("expected errors.Is to match ErrCacheCorrupt")
	}
	if errors.Is(err, ErrStorageFailed) {
		t.Error("did not expect errors.Is to match ErrStorageFailed")
	}
}

func TestError_UnwrapCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := CollaboratorFailure("detector", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, want cause text", err.Error())
	}
}

func TestError_WithTemplate(t *testing.T) {
	base := RegionNotFound("text")
	annotated := base.WithTemplate("t1.indt")

	if base.TemplateID != "" {
		t.Error("WithTemplate must not modify the receiver")
	}
	if !strings.Contains(annotated.Error(), `"t1.indt"`) {
		t.Errorf("Error() = %q, want template id", annotated.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", NoTemplates(), CodePrecondition},
		{"wrapped", fmt.Errorf("select: %w", NoTemplates()), CodePrecondition},
		{"foreign", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAs_WrapsForeignErrors(t *testing.T) {
	e := As(errors.New("boom"))
	if e.Code != "INTERNAL" {
		t.Errorf("Code = %q, want INTERNAL", e.Code)
	}
	if e.ToMap()["cause"] != "boom" {
		t.Errorf("cause = %v, want boom", e.ToMap()["cause"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidImage, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeRegionNotFound, http.StatusUnprocessableEntity},
		{CodePrecondition, http.StatusConflict},
		{CodeCollaboratorFailure, http.StatusBadGateway},
		{CodeCacheCorrupt, http.StatusInternalServerError},
		{CodeStorageFailed, http.StatusInternalServerError},
		{CodeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.code); got != tt.want {
			t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestTemplateNotFound(t *testing.T) {
	err := TemplateNotFound("villa.indt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(ErrNotFound) = false for %v", err)
	}
	m := err.ToMap()
	if m["code"] != "NOT_FOUND" || m["template_id"] != "villa.indt" {
		t.Errorf("ToMap = %v", m)
	}
}
