package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// SearchThreads returns the participant's non-deleted threads whose keywords
// contain every word of query. Words are normalised the same way thread
// keywords are, so matching is whole-word and case-insensitive.
func (s *DB) SearchThreads(ctx context.Context, query string, participantID domain.ParticipantID) ([]store.ThreadSummary, error) {
	words := domain.ExtractKeywords(query)
	if len(words) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, summarySelect, anyActivity)
	b.WriteString(" AND tp.is_deleted = 0")
	args := []any{string(participantID)}
	for _, w := range words {
		b.WriteString(" AND (' ' || t.keywords || ' ') LIKE ?")
		args = append(args, likeWord(w))
	}
	b.WriteString(" ORDER BY activity DESC, t.id")

	summaries, err := s.querySummaries(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	return summaries, nil
}

func likeWord(word string) string {
	return "% " + word + " %"
}
