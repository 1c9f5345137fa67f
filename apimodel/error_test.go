package apimodel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendErrorDefaultMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "Ok"},
		{http.StatusNotFound, "Page not found"},
		{http.StatusMethodNotAllowed, "Method not allowed"},
		{http.StatusForbidden, "Forbidden"},
		{http.StatusServiceUnavailable, "Service unavailable"},
		{http.StatusBadRequest, "Bad request"},
		{http.StatusTeapot, "Internal error"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorMessage{ErrStatusCode: tt.status}.SendError(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var got ErrorMessage
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got.ErrMessage != tt.want || got.ErrStatusCode != tt.status {
				t.Errorf("SendError() body = %+v, want message %q", got, tt.want)
			}
		})
	}
}

func TestSendErrorKeepsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WrongParametersErrorMessage.SendError(rec)
	var got ErrorMessage
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if got.ErrMessage != "unable to parse parameters" {
		t.Errorf("message = %q, want %q", got.ErrMessage, "unable to parse parameters")
	}
	if got.Error() != "400:unable to parse parameters" {
		t.Errorf("Error() = %q", got.Error())
	}
}
