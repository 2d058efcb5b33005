// Package umls implements the two-step UMLS concept lookup protocol
package umls

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/ayurlink/tulsi/pkg/httpclient"
	"github.com/ayurlink/tulsi/pkg/tracing"
)

// Target code systems and term types understood by the UMLS atoms endpoint
const (
	SourceSNOMEDCTUS = "SNOMEDCT_US"
	SourceICD10CM    = "ICD10CM"

	termTypePreferred = "PT"
	atomsPageSize     = 5
)

// Concept is one concept returned by the UMLS search endpoint.
type Concept struct {
	CUI  string // Concept Unique Identifier
	Name string // preferred term
}

// ConceptClient is the contract the code resolver depends on. Both calls may
// return a LookupFailure, which callers treat as "no candidates".
type ConceptClient interface {
	// SearchConcepts maps a keyword to candidate concepts, optionally
	// restricted to concepts present in the given source vocabulary.
	SearchConcepts(ctx context.Context, term string, sourceFilter string) ([]Concept, error)

	// ConceptCodes maps a concept to its codes in the target source
	// vocabulary via the atoms endpoint.
	ConceptCodes(ctx context.Context, cui string, targetSource string) ([]string, error)
}

// LookupFailure is a recoverable external-call failure. It is recorded per
// entity and never aborts resolution of other entities.
type LookupFailure struct {
	Op   string
	Term string
	Err  error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("umls %s failed for %q: %v", e.Op, e.Term, e.Err)
}

func (e *LookupFailure) Unwrap() error {
	return e.Err
}

// Config holds UMLS client configuration.
type Config struct {
	BaseURL string // e.g. https://uts-ws.nlm.nih.gov/rest
	APIKey  string
}

// Client talks to the UMLS Terminology Services REST API.
type Client struct {
	http   *httpclient.Client
	logger ectologger.Logger
	cfg    Config
}

// NewClient creates a UMLS client.
func NewClient(http *httpclient.Client, logger ectologger.Logger, cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: http, logger: logger, cfg: cfg}
}

type searchResponse struct {
	Result struct {
		Results []struct {
			UI   string `json:"ui"`
			Name string `json:"name"`
		} `json:"results"`
	} `json:"result"`
}

// SearchConcepts implements step one: keyword to CUIs.
func (c *Client) SearchConcepts(ctx context.Context, term string, sourceFilter string) ([]Concept, error) {
	ctx, span := tracing.StartSpan(ctx, "umls.Client.SearchConcepts")
	defer span.End()

	params := url.Values{}
	params.Set("string", term)
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("returnIdType", "concept")
	if sourceFilter != "" {
		params.Set("sabs", sourceFilter)
	}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.cfg.BaseURL+"/search/current", params, &resp); err != nil {
		return nil, &LookupFailure{Op: "search", Term: term, Err: err}
	}

	concepts := make([]Concept, 0, len(resp.Result.Results))
	for _, r := range resp.Result.Results {
		// The API signals "no results" with a NONE placeholder row.
		if r.UI == "" || r.UI == "NONE" {
			continue
		}
		concepts = append(concepts, Concept{CUI: r.UI, Name: r.Name})
	}
	return concepts, nil
}

type atomsResponse struct {
	Result []struct {
		Code string `json:"code"`
	} `json:"result"`
}

// ConceptCodes implements step two: CUI to target-system codes. The atoms
// endpoint returns code URIs; the code itself is the final path segment.
func (c *Client) ConceptCodes(ctx context.Context, cui string, targetSource string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "umls.Client.ConceptCodes")
	defer span.End()

	params := url.Values{}
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("sabs", targetSource)
	params.Set("ttys", termTypePreferred)
	params.Set("pageSize", strconv.Itoa(atomsPageSize))

	endpoint := fmt.Sprintf("%s/content/current/CUI/%s/atoms", c.cfg.BaseURL, url.PathEscape(cui))

	var resp atomsResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, &LookupFailure{Op: "atoms", Term: cui, Err: err}
	}

	seen := make(map[string]bool)
	var codes []string
	for _, atom := range resp.Result {
		code := atom.Code
		if i := strings.LastIndex(code, "/"); i >= 0 {
			code = code[i+1:]
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}
