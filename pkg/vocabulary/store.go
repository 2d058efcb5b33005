// Package vocabulary loads and indexes the fixed terminology reference table
package vocabulary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/normalizers"
)

// Required source columns. Any remaining header column is treated as an
// external coding system (e.g. "snomed", "icd10", "umls").
const (
	columnID          = "id"
	columnTerm        = "term"
	columnSynonyms    = "synonyms"
	columnDescription = "description" // optional
)

// Store is the read-only vocabulary index. It is built once at startup and
// safe for concurrent use without locking.
type Store struct {
	entries []*models.VocabularyEntry
	exact   map[string]*models.VocabularyEntry
	byCode  map[models.CodeSystem]map[string]*models.VocabularyEntry
	tokens  map[string][]string // entry ID -> significant tokens across display terms
}

// synonymNumbering strips leading "1. " style numbering from synonym cells.
var synonymNumbering = regexp.MustCompile(`^\d+\.\s*`)

// LoadFile loads the vocabulary from a CSV file on disk.
func LoadFile(path string, pipe *normalizers.Pipeline) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Reason: fmt.Sprintf("open %s: %v", path, err)}
	}
	defer f.Close()
	return Load(f, pipe)
}

// Load parses a tabular vocabulary source. It fails with a LoadError when
// required columns are missing, an ID is empty or duplicated, or the file is
// not valid CSV. Entry order follows file order so downstream tie-breaks are
// reproducible.
func Load(r io.Reader, pipe *normalizers.Pipeline) (*Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Reason: fmt.Sprintf("read header: %v", err)}
	}

	// BOM from exported spreadsheets
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idCol, termCol, synCol, descCol := -1, -1, -1, -1
	codeCols := make(map[int]models.CodeSystem)
	for i, name := range header {
		switch key := strings.ToLower(strings.TrimSpace(name)); key {
		case columnID:
			idCol = i
		case columnTerm:
			termCol = i
		case columnSynonyms:
			synCol = i
		case columnDescription:
			descCol = i
		case "":
			// ignore unnamed columns
		default:
			codeCols[i] = models.CodeSystem(strings.ToUpper(key))
		}
	}
	if idCol < 0 || termCol < 0 || synCol < 0 {
		return nil, &LoadError{Reason: fmt.Sprintf(
			"missing required columns (need %q, %q, %q), got %v", columnID, columnTerm, columnSynonyms, header)}
	}

	s := &Store{
		exact:  make(map[string]*models.VocabularyEntry),
		byCode: make(map[models.CodeSystem]map[string]*models.VocabularyEntry),
		tokens: make(map[string][]string),
	}
	seen := make(map[string]int)

	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, loadErrorf(line, "read row: %v", err)
		}
		if len(row) <= termCol || len(row) <= idCol {
			continue
		}

		id := strings.TrimSpace(row[idCol])
		term := strings.TrimSpace(row[termCol])
		if id == "" {
			return nil, loadErrorf(line, "empty id")
		}
		if term == "" {
			return nil, loadErrorf(line, "entry %s has no term", id)
		}
		if prev, dup := seen[id]; dup {
			return nil, loadErrorf(line, "duplicate id %s (first seen at line %d)", id, prev)
		}
		seen[id] = line

		entry := &models.VocabularyEntry{
			ID:            id,
			CanonicalTerm: normalizers.TermKey(term),
			DisplayTerms:  []string{term},
			ExternalCodes: make(map[models.CodeSystem]string),
		}

		if synCol < len(row) {
			for _, syn := range splitSynonyms(row[synCol]) {
				entry.DisplayTerms = appendUnique(entry.DisplayTerms, syn)
			}
		}
		if descCol >= 0 && descCol < len(row) {
			entry.Description = strings.TrimSpace(row[descCol])
		}
		for col, system := range codeCols {
			if col >= len(row) {
				continue
			}
			if code := strings.TrimSpace(row[col]); code != "" {
				entry.ExternalCodes[system] = code
			}
		}

		if err := s.index(entry, pipe); err != nil {
			return nil, loadErrorf(line, "%v", err)
		}
	}

	return s, nil
}

// index registers an entry in every lookup structure.
func (s *Store) index(entry *models.VocabularyEntry, pipe *normalizers.Pipeline) error {
	s.entries = append(s.entries, entry)

	for _, term := range entry.DisplayTerms {
		// First writer wins so load order decides shared-spelling conflicts.
		for _, key := range []string{normalizers.TermKey(term), normalizers.CollapsedKey(term)} {
			if key == "" {
				continue
			}
			if _, taken := s.exact[key]; !taken {
				s.exact[key] = entry
			}
		}
	}
	if _, taken := s.exact[entry.CanonicalTerm]; !taken {
		s.exact[entry.CanonicalTerm] = entry
	}

	for system, code := range entry.ExternalCodes {
		idx := s.byCode[system]
		if idx == nil {
			idx = make(map[string]*models.VocabularyEntry)
			s.byCode[system] = idx
		}
		if other, dup := idx[code]; dup && other.ID != entry.ID {
			return fmt.Errorf("code %s/%s assigned to both %s and %s", system, code, other.ID, entry.ID)
		}
		idx[code] = entry
	}

	if pipe != nil {
		seen := make(map[string]bool)
		var tokens []string
		for _, term := range entry.DisplayTerms {
			for _, tok := range pipe.SignificantTokens(term) {
				if !seen[tok] {
					seen[tok] = true
					tokens = append(tokens, tok)
				}
			}
		}
		s.tokens[entry.ID] = tokens
	}
	return nil
}

// LookupExact returns the entry whose canonical term or any display term
// equals the given text after normalization, or nil. O(1).
func (s *Store) LookupExact(text string) *models.VocabularyEntry {
	if entry, ok := s.exact[normalizers.TermKey(text)]; ok {
		return entry
	}
	if entry, ok := s.exact[normalizers.CollapsedKey(text)]; ok {
		return entry
	}
	return nil
}

// LookupByCode returns the entry carrying the given external code, or nil.
func (s *Store) LookupByCode(system models.CodeSystem, code string) *models.VocabularyEntry {
	idx := s.byCode[system]
	if idx == nil {
		return nil
	}
	return idx[code]
}

// LookupAnyCode scans code systems for the given code string. Used when a
// phrase looks like a bare identifier with no system attached. Systems are
// scanned in name order so a code shared across systems resolves the same
// way on every run.
func (s *Store) LookupAnyCode(code string) *models.VocabularyEntry {
	systems := make([]string, 0, len(s.byCode))
	for system := range s.byCode {
		systems = append(systems, string(system))
	}
	sort.Strings(systems)

	for _, system := range systems {
		if entry, ok := s.byCode[models.CodeSystem(system)][code]; ok {
			return entry
		}
	}
	return nil
}

// IterateCandidates returns all entries in load order. Callers must not
// mutate the returned slice or the entries.
func (s *Store) IterateCandidates() []*models.VocabularyEntry {
	return s.entries
}

// SignificantTokens returns the precomputed significant-token set spanning an
// entry's display terms.
func (s *Store) SignificantTokens(entryID string) []string {
	return s.tokens[entryID]
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// splitSynonyms splits a synonym cell on ";" and ",", dropping numbering
// prefixes and trailing slashes the source data carries.
func splitSynonyms(cell string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == ',' }) {
		part = synonymNumbering.ReplaceAllString(strings.TrimSpace(part), "")
		part = strings.TrimSpace(strings.TrimRight(part, "/"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(terms []string, term string) []string {
	for _, t := range terms {
		if strings.EqualFold(t, term) {
			return terms
		}
	}
	return append(terms, term)
}
