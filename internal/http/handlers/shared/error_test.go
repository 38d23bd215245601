package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestCodeForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid actor", err: service.ErrInvalidActor, want: response.CodeUnauthorized},
		{name: "forbidden", err: service.ErrTransitionForbidden, want: response.CodeForbidden},
		{name: "validation", err: service.ErrFeedbackRequired, want: response.CodeBadRequest},
		{name: "not found", err: service.ErrOrderNotFound, want: response.CodeNotFound},
		{name: "conflict", err: service.ErrConcurrentModification, want: response.CodeConflict},
		{name: "lock wait cancelled", err: fmt.Errorf("%w: %w", service.ErrLockFailed, context.Canceled), want: response.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeForError(tc.err); got != tc.want {
				t.Fatalf("code want %d got %d", tc.want, got)
			}
		})
	}
}

func TestRespondServiceErrorNamesLockFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/orders/1/transitions/start_design", nil)

	RespondServiceError(c, fmt.Errorf("%w: %w", service.ErrLockFailed, context.Canceled))

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if body.Msg != service.ErrLockFailed.Error() {
		t.Fatalf("msg want %q got %q", service.ErrLockFailed.Error(), body.Msg)
	}
	if body.Data["kind"] != string(service.KindDependencyFailure) {
		t.Fatalf("kind want %s got %s", service.KindDependencyFailure, body.Data["kind"])
	}
}
