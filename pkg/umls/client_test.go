package umls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurlink/tulsi/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	hc := httpclient.NewClient(httpclient.DefaultConfig(), logger)
	return NewClient(hc, logger, Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestClient_SearchConcepts(t *testing.T) {
	t.Run("maps results to concepts", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/current", r.URL.Path)
			assert.Equal(t, "rheumatoid arthritis", r.URL.Query().Get("string"))
			assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
			assert.Equal(t, "concept", r.URL.Query().Get("returnIdType"))
			assert.Equal(t, SourceSNOMEDCTUS, r.URL.Query().Get("sabs"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":{"results":[
				{"ui":"C0003873","name":"Rheumatoid Arthritis"},
				{"ui":"C0003864","name":"Arthritis"}
			]}}`))
		}))

		concepts, err := client.SearchConcepts(context.Background(), "rheumatoid arthritis", SourceSNOMEDCTUS)
		require.NoError(t, err)
		require.Len(t, concepts, 2)
		assert.Equal(t, Concept{CUI: "C0003873", Name: "Rheumatoid Arthritis"}, concepts[0])
	})

	t.Run("filters NONE placeholder", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"results":[{"ui":"NONE","name":"NO RESULTS"}]}}`))
		}))

		concepts, err := client.SearchConcepts(context.Background(), "no such term", "")
		require.NoError(t, err)
		assert.Empty(t, concepts)
	})

	t.Run("omits sabs when no filter", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("sabs"))
			_, _ = w.Write([]byte(`{"result":{"results":[]}}`))
		}))

		_, err := client.SearchConcepts(context.Background(), "term", "")
		require.NoError(t, err)
	})

	t.Run("server error becomes LookupFailure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.SearchConcepts(context.Background(), "term", "")
		require.Error(t, err)
		var failure *LookupFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "search", failure.Op)
		assert.Equal(t, "term", failure.Term)
	})
}

func TestClient_ConceptCodes(t *testing.T) {
	t.Run("extracts code from atom URI", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/content/current/CUI/C0003873/atoms", r.URL.Path)
			assert.Equal(t, SourceSNOMEDCTUS, r.URL.Query().Get("sabs"))
			assert.Equal(t, "PT", r.URL.Query().Get("ttys"))
			assert.Equal(t, "5", r.URL.Query().Get("pageSize"))

			_, _ = w.Write([]byte(`{"result":[
				{"code":"https://uts-ws.nlm.nih.gov/rest/content/2024AA/source/SNOMEDCT_US/69896004"},
				{"code":"https://uts-ws.nlm.nih.gov/rest/content/2024AA/source/SNOMEDCT_US/69896004"},
				{"code":"https://uts-ws.nlm.nih.gov/rest/content/2024AA/source/SNOMEDCT_US/239791005"}
			]}`))
		}))

		codes, err := client.ConceptCodes(context.Background(), "C0003873", SourceSNOMEDCTUS)
		require.NoError(t, err)
		assert.Equal(t, []string{"69896004", "239791005"}, codes)
	})

	t.Run("bare codes pass through", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":[{"code":"69896004"}]}`))
		}))

		codes, err := client.ConceptCodes(context.Background(), "C0003873", SourceSNOMEDCTUS)
		require.NoError(t, err)
		assert.Equal(t, []string{"69896004"}, codes)
	})

	t.Run("not found becomes LookupFailure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := client.ConceptCodes(context.Background(), "C9999999", SourceSNOMEDCTUS)
		require.Error(t, err)
		var failure *LookupFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "atoms", failure.Op)
	})
}

func TestLookupFailure_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	failure := &LookupFailure{Op: "search", Term: "x", Err: inner}
	assert.ErrorIs(t, failure, inner)
	assert.Contains(t, failure.Error(), "search")
}
