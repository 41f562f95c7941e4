package calls

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptExport is a transcript ready to be served as a text attachment.
type TranscriptExport struct {
	Filename string
	Body     string
}

// ExportTranscript names the file call-transcript-<id>-<YYYY-MM-DD>.txt.
func ExportTranscript(c Call, loc *time.Location) (TranscriptExport, error) {
	if strings.TrimSpace(c.Transcript) == "" {
		return TranscriptExport{}, ErrNoTranscript
	}
	return TranscriptExport{
		Filename: fmt.Sprintf("call-transcript-%s-%s.txt", c.ID, Day(c.CreatedAt, loc)),
		Body:     c.Transcript,
	}, nil
}

// SearchResult reports case-insensitive matches of a term in a transcript.
type SearchResult struct {
	Term    string   `json:"term"`
	Found   bool     `json:"found"`
	Matches int      `json:"matches"`
	Lines   []string `json:"lines"`
}

// SearchTranscript counts case-insensitive occurrences of term and returns
// the lines that contain it.
func SearchTranscript(transcript, term string) (SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchResult{}, fmt.Errorf("%w: search term is required", ErrInvalidArgument)
	}
	needle := strings.ToLower(term)
	res := SearchResult{Term: term, Lines: []string{}}
	for _, line := range strings.Split(transcript, "\n") {
		n := strings.Count(strings.ToLower(line), needle)
		if n == 0 {
			continue
		}
		res.Matches += n
		res.Lines = append(res.Lines, line)
	}
	res.Found = res.Matches > 0
	return res, nil
}
