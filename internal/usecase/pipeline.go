package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"EditaisScanner/internal/classify"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

// Relevance decides whether a notice is TI-related.
type Relevance interface {
	Classify(ctx context.Context, notice domain.Notice) classify.Verdict
}

// Locality decides whether a title refers to the target town.
type Locality interface {
	Matches(title string) bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.CandidateSource
	Store      ports.NoticeStore
	Locality   Locality
	Classifier Relevance
	Logger     *slog.Logger
}

// Pipeline implements one discovery run: fetch, filter, classify, dedup, persist.
type Pipeline struct {
	source     ports.CandidateSource
	store      ports.NoticeStore
	locality   Locality
	classifier Relevance
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		locality:   deps.Locality,
		classifier: deps.Classifier,
		logger:     logger,
	}
}

// Run returns the notices accepted for the first time in this run.
// Listing and store-load failures abort the run before anything is saved;
// per-candidate failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Notice, error) {
	if p.source == nil || p.store == nil || p.locality == nil || p.classifier == nil {
		return nil, errors.New("pipeline is not fully wired")
	}

	log := p.logger.With("run_id", uuid.NewString())

	accepted, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accepted set: %w", err)
	}

	candidates, err := p.source.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	log.Info("run started", "candidates", len(candidates), "known", accepted.Len())

	counts := map[domain.Outcome]int{}
	var fresh []domain.Notice
	for _, notice := range candidates {
		outcome := p.evaluate(ctx, log, accepted, notice)
		counts[outcome]++
		if !outcome.Accepted() {
			continue
		}
		accepted.Append(notice)
		fresh = append(fresh, notice)
	}

	if err := p.store.Save(ctx, accepted); err != nil {
		return nil, fmt.Errorf("save accepted set: %w", err)
	}

	log.Info("run finished",
		"accepted", len(fresh),
		"duplicates", counts[domain.OutcomeSkippedDuplicate],
		"other_locality", counts[domain.OutcomeSkippedLocality],
		"by_title", counts[domain.OutcomeAcceptedByTitle],
		"by_document", counts[domain.OutcomeAcceptedByDocument],
		"rejected", counts[domain.OutcomeRejectedByDocument],
		"errors", counts[domain.OutcomeError],
	)
	return fresh, nil
}

func (p *Pipeline) evaluate(ctx context.Context, log *slog.Logger, accepted *domain.AcceptedSet, notice domain.Notice) domain.Outcome {
	if accepted.Contains(notice.Link) {
		return domain.OutcomeSkippedDuplicate
	}

	log = log.With("title", notice.Title, "link", notice.Link)
	if !p.locality.Matches(notice.Title) {
		log.Debug("skipped, other locality")
		return domain.OutcomeSkippedLocality
	}

	verdict := p.classifier.Classify(ctx, notice)
	switch verdict.Outcome {
	case domain.OutcomeAcceptedByTitle, domain.OutcomeAcceptedByDocument:
		log.Info("notice accepted", "outcome", verdict.Outcome, "phrase", verdict.Phrase)
	case domain.OutcomeRejectedByDocument:
		log.Info("notice rejected, document has no TI course")
	default:
		log.Warn("notice skipped, document check failed", "error", verdict.Err)
	}
	return verdict.Outcome
}
