package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	t.Parallel()

	sr := newStatusRecorder(httptest.NewRecorder())

	if sr.status != http.StatusOK {
		t.Errorf("initial status = %d, want %d", sr.status, http.StatusOK)
	}
	if sr.wroteHeader {
		t.Error("wroteHeader = true before any write")
	}
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sr := newStatusRecorder(rec)

	sr.WriteHeader(http.StatusCreated)
	sr.WriteHeader(http.StatusConflict)

	if sr.status != http.StatusCreated {
		t.Errorf("status = %d, want %d from first call", sr.status, http.StatusCreated)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("recorder Code = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestStatusRecorder_WriteImpliesHeader(t *testing.T) {
	t.Parallel()

	sr := newStatusRecorder(httptest.NewRecorder())

	n, err := sr.Write([]byte(`{"id":"a6f4f9a0"}`))
	if err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if n != 17 {
		t.Errorf("Write returned %d, want 17", n)
	}
	if !sr.wroteHeader {
		t.Error("wroteHeader = false after Write")
	}
	if sr.status != http.StatusOK {
		t.Errorf("status = %d, want implicit %d", sr.status, http.StatusOK)
	}
}

func TestStatusRecorder_CountsBodyBytes(t *testing.T) {
	t.Parallel()

	sr := newStatusRecorder(httptest.NewRecorder())

	_, _ = sr.Write([]byte("{"))
	_, _ = sr.Write([]byte(`"done":true}`))

	if sr.bytes != 13 {
		t.Errorf("bytes = %d, want 13", sr.bytes)
	}
}

func TestStatusRecorder_UnwrapExposesInnerWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sr := newStatusRecorder(rec)

	if sr.Unwrap() != rec {
		t.Error("Unwrap did not return the wrapped writer")
	}
}
