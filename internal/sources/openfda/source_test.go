package openfda

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/sources"
)

func labelJSON(generic, brand, indications string) string {
	return fmt.Sprintf(`{"results":[{
"set_id":"abc-123",
"indications_and_usage":[%q],
"warnings":["General warnings"],
"boxed_warning":["Lactic acidosis"],
"openfda":{"generic_name":[%q],"brand_name":[%q],"route":["ORAL"],
"pharm_class_epc":["Biguanide [EPC]"],"manufacturer_name":["Acme"]}}]}`, indications, generic, brand)
}

func serve(t *testing.T, status int, body string) (*Source, *string) {
	t.Helper()
	var search string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/label.json", r.URL.Path)
		search = r.URL.Query().Get("search")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return New(server.Client(), server.URL, ""), &search
}

func TestSource_Lookup(t *testing.T) {
	long := strings.Repeat("x", sources.MaxTextLength+50)
	src, search := serve(t, http.StatusOK, labelJSON("METFORMIN HYDROCHLORIDE", "Glucophage", long))
	assert.Equal(t, domain.SourceOpenFDA, src.Kind())

	entries, err := src.Lookup(context.Background(), "Metformin")

	require.NoError(t, err)
	assert.Equal(t, `openfda.generic_name:"Metformin" openfda.brand_name:"Metformin"`, *search)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CategoryDrug, entries[0].Category)

	lbl := entries[0].Payload.Label
	require.NotNil(t, lbl)
	assert.Equal(t, "abc-123", lbl.SetID)
	assert.Equal(t, []string{"Glucophage"}, lbl.BrandNames)
	assert.Equal(t, []string{"ORAL"}, lbl.Routes)
	assert.Equal(t, []string{"Biguanide [EPC]"}, lbl.PharmacologicClass)
	assert.Equal(t, "Lactic acidosis", lbl.BoxedWarning)
	assert.Equal(t, "General warnings", lbl.Warnings, "falls back to warnings section")
	assert.Len(t, lbl.Indications, sources.MaxTextLength+3)
}

func TestSource_Lookup_BrandGuard(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		brand   string
		want    bool
	}{
		{"exact brand", "glucophage", "Glucophage", true},
		{"brand in list", "scrub-stat", "Scrub, Scrub-Stat", true},
		{"substring of list", "stat", "Scrub, Scrub-Stat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, _ := serve(t, http.StatusOK, labelJSON("CHLORHEXIDINE", tt.brand, "use"))
			entries, err := src.Lookup(context.Background(), tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.want, len(entries) == 1)
		})
	}
}

func TestSource_Lookup_NotFound(t *testing.T) {
	src, _ := serve(t, http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`)

	entries, err := src.Lookup(context.Background(), "abg")

	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSource_Lookup_RateLimited(t *testing.T) {
	src, _ := serve(t, http.StatusTooManyRequests, "")

	_, err := src.Lookup(context.Background(), "metformin")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSource_Lookup_QuotesStripped(t *testing.T) {
	src, search := serve(t, http.StatusOK, `{"results":[]}`)

	entries, err := src.Lookup(context.Background(), `as"pirin`)

	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.Equal(t, `openfda.generic_name:"aspirin" openfda.brand_name:"aspirin"`, *search)
}

func TestSource_Lookup_APIKey(t *testing.T) {
	var key string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.URL.Query().Get("api_key")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	_, err := New(server.Client(), server.URL, "k123").Lookup(context.Background(), "aspirin")

	require.NoError(t, err)
	assert.Equal(t, "k123", key)
}
