package storage

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/google/go-cmp/cmp"

	"promptly/domain"
)

func TestDecodePromptEntitiesOrdersRows(t *testing.T) {
	raw := [][]byte{
		[]byte(`{"PartitionKey":"prompts","RowKey":"b","Title":"Second","Text":"two","Category":"SEO","Order":1}`),
		[]byte(`{"PartitionKey":"prompts","RowKey":"a","Title":"First","Text":"one","Order":0}`),
	}
	rows, err := decodePromptEntities(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := [][]any{
		{"a", "First", "one", ""},
		{"b", "Second", "two", "SEO"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}

	prompts := NormalizeRows(rows, nil)
	if len(prompts) != 2 || prompts[0].Category != domain.DefaultCategory {
		t.Fatalf("unexpected prompts %+v", prompts)
	}
}

func TestDecodePromptEntitiesInvalid(t *testing.T) {
	if _, err := decodePromptEntities([][]byte{[]byte(`not json`)}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClassifyTableError(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorKind
	}{
		{status: http.StatusUnauthorized, want: domain.KindAuthentication},
		{status: http.StatusForbidden, want: domain.KindPermissionDenied},
		{status: http.StatusNotFound, want: domain.KindNotFound},
		{status: http.StatusInternalServerError, want: domain.KindUnknown},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "https://account.table.core.windows.net/Prompts()", nil)
		respErr := &azcore.ResponseError{
			StatusCode:  tt.status,
			RawResponse: &http.Response{StatusCode: tt.status, Request: req, Header: http.Header{}},
		}
		err := classifyTableError(respErr, "Prompts")
		if err.Kind != tt.want {
			t.Fatalf("status %d: expected %q, got %q", tt.status, tt.want, err.Kind)
		}
	}
	if got := classifyTableError(errors.New("dial tcp"), "Prompts"); got.Kind != domain.KindUnknown {
		t.Fatalf("expected unknown, got %q", got.Kind)
	}
}
