package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"EditaisScanner/internal/domain"
)

func TestAcceptedSetKeepsInsertionOrderAndUniqueLinks(t *testing.T) {
	t.Parallel()

	set := domain.NewAcceptedSet(
		domain.Notice{Title: "EDITAL 02", Link: "https://x/2.pdf"},
		domain.Notice{Title: "EDITAL 01", Link: "https://x/1.pdf"},
		domain.Notice{Title: "Edital 02 (retificado)", Link: "https://x/2.pdf"},
	)

	require.Equal(t, 2, set.Len())
	require.True(t, set.Contains("https://x/1.pdf"))
	require.False(t, set.Contains("https://x/3.pdf"))

	notices := set.Notices()
	require.Equal(t, "EDITAL 02", notices[0].Title)
	require.Equal(t, "EDITAL 01", notices[1].Title)

	require.False(t, set.Append(domain.Notice{Title: "dup", Link: "https://x/1.pdf"}))
	require.True(t, set.Append(domain.Notice{Title: "EDITAL 03", Link: "https://x/3.pdf"}))
	require.Equal(t, 3, set.Len())
}

func TestAcceptedSetZeroValueIsUsable(t *testing.T) {
	t.Parallel()

	var set domain.AcceptedSet
	require.False(t, set.Contains("a"))
	require.True(t, set.Append(domain.Notice{Link: "a"}))
	require.True(t, set.Contains("a"))
}

func TestOutcomeAccepted(t *testing.T) {
	t.Parallel()

	require.True(t, domain.OutcomeAcceptedByTitle.Accepted())
	require.True(t, domain.OutcomeAcceptedByDocument.Accepted())
	require.False(t, domain.OutcomeRejectedByDocument.Accepted())
	require.False(t, domain.OutcomeError.Accepted())
}

func TestClassificationErrorUnwrapsFetchError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("document: %w", &domain.ClassificationError{
		Link: "https://x/1.pdf",
		Err:  &domain.FetchError{URL: "https://x/1.pdf", Err: cause},
	})

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection reset")

	status := &domain.FetchError{URL: "https://x", StatusCode: 503}
	require.Contains(t, status.Error(), "503 Service Unavailable")
}
