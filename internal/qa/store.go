package qa

import (
	"context"

	"github.com/yumeleng/scholar-qa-go/internal/kb"
)

// Store is the slice of the knowledge store gateway the engine needs.
// kb.Client satisfies it; tests use a fake.
type Store interface {
	ExpertsByInterest(ctx context.Context, field string) ([]kb.Expert, error)
	ExpertsByInterestFuzzy(ctx context.Context, field string) ([]kb.Expert, error)
	ExpertInterests(ctx context.Context, name string) ([]kb.ExpertProfile, error)
	ExpertHIndexes(ctx context.Context, name string) ([]kb.ExpertProfile, error)
	ExpertHIndexesInField(ctx context.Context, name, field string) ([]kb.ExpertProfile, error)
	ExpertPublications(ctx context.Context, name string) ([]string, error)
	PublicationAuthors(ctx context.Context, title string) ([]string, error)
	Cooperation(ctx context.Context, name1, name2 string) ([]kb.Publication, error)
	PairwiseCollaborations(ctx context.Context, names []string) ([]kb.Collaboration, error)
	FieldPublications(ctx context.Context, field string, fuzzy bool, limit int) ([]kb.Publication, error)
	RecentFieldPublications(ctx context.Context, field string, fuzzy bool, limit int) ([]kb.Publication, error)
	PublicationsByTitle(ctx context.Context, title string) ([]kb.Publication, error)
	PublicationFields(ctx context.Context, title string) ([]kb.PublicationFields, error)
	AllInterestNames(ctx context.Context) ([]string, error)
	MoreInformation(ctx context.Context, topic string, limit int) ([]kb.ExpertWork, error)
}
