package rxnorm

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
)

type routes map[string]string

func serve(t *testing.T, r routes) *Source {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, ok := r[req.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if req.URL.Path == "/rxcui/861007/related.json" {
			assert.Equal(t, "SCD SBD", req.URL.Query().Get("tty"))
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return New(server.Client(), server.URL)
}

func conceptsJSON(names ...string) string {
	props := make([]string, len(names))
	for i, n := range names {
		props[i] = fmt.Sprintf(`{"rxcui":"%d","name":%q}`, 1000+i, n)
	}
	return fmt.Sprintf(`{"conceptGroup":[{"tty":"SCD","conceptProperties":[%s]}]}`, strings.Join(props, ","))
}

const classesJSON = `{"rxclassDrugInfoList":{"rxclassDrugInfo":[
{"rxclassMinConceptItem":{"className":"Biguanides"}},
{"rxclassMinConceptItem":{"className":"Biguanides"}},
{"rxclassMinConceptItem":{"className":"Blood glucose lowering drugs"}}]}}`

func TestSource_Lookup_ExactMatch(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = fmt.Sprintf("metformin %d MG Oral Tablet", (i+1)*100)
	}
	src := serve(t, routes{
		"/drugs.json":                    `{"drugGroup":` + conceptsJSON(names...) + `}`,
		"/rxclass/class/byDrugName.json": classesJSON,
	})
	assert.Equal(t, domain.SourceRxNorm, src.Kind())

	entries, err := src.Lookup(context.Background(), "metformin")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CategoryDrug, entries[0].Category)

	drug := entries[0].Payload.Formulation
	require.NotNil(t, drug)
	assert.Equal(t, "1000", drug.RxCUI)
	assert.Len(t, drug.Formulations, MaxFormulations)
	assert.Empty(t, drug.MatchedName)
	assert.Equal(t, []string{"Biguanides", "Blood glucose lowering drugs"}, drug.DrugClasses)
}

func TestSource_Lookup_ApproximateFallback(t *testing.T) {
	src := serve(t, routes{
		"/drugs.json":                `{"drugGroup":{"name":null}}`,
		"/approximateTerm.json":      `{"approximateGroup":{"candidate":[{"rxcui":"861007","name":"metformin"}]}}`,
		"/rxcui/861007/related.json": `{"relatedGroup":` + conceptsJSON("metformin 500 MG Oral Tablet") + `}`,
	})

	entries, err := src.Lookup(context.Background(), "metformn")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	drug := entries[0].Payload.Formulation
	assert.Equal(t, "861007", drug.RxCUI)
	assert.Equal(t, "metformin", drug.MatchedName)
	assert.Equal(t, []string{"metformin 500 MG Oral Tablet"}, drug.Formulations)
	assert.Empty(t, drug.DrugClasses)
}

func TestSource_Lookup_NothingFound(t *testing.T) {
	src := serve(t, routes{
		"/drugs.json":                    `{"drugGroup":{}}`,
		"/approximateTerm.json":          `{"approximateGroup":{}}`,
		"/rxclass/class/byDrugName.json": `{}`,
	})

	entries, err := src.Lookup(context.Background(), "abg")

	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSource_Lookup_PartialFailure(t *testing.T) {
	src := serve(t, routes{
		"/drugs.json":                    "500",
		"/approximateTerm.json":          "500",
		"/rxclass/class/byDrugName.json": classesJSON,
	})

	entries, err := src.Lookup(context.Background(), "metformin")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Payload.Formulation.Formulations)
	assert.Len(t, entries[0].Payload.Formulation.DrugClasses, 2)
}

func TestSource_Lookup_AllFail(t *testing.T) {
	src := serve(t, routes{
		"/drugs.json":                    "500",
		"/approximateTerm.json":          "500",
		"/rxclass/class/byDrugName.json": "500",
	})

	_, err := src.Lookup(context.Background(), "metformin")

	assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
}
