package qdrant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"oracle/internal/domain"
	"oracle/internal/vectorstore"
)

const upsertBatch = 256

// Payload keys.
const (
	keyText   = "text"
	keySource = "source"
	keyPage   = "page"
	keyIndex  = "index"
)

// client is the part of *qdrant.Client the index needs.
type client interface {
	ListCollections(ctx context.Context) ([]string, error)
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	ListAliases(ctx context.Context) ([]*qdrant.AliasDescription, error)
	UpdateAliases(ctx context.Context, actions []*qdrant.AliasOperations) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// Index stores fragments in Qdrant over gRPC. A logical collection is an
// alias pointing at a physical collection, so recreation swaps the alias
// and readers never observe a half-written collection.
type Index struct {
	client client
	log    zerolog.Logger
}

func NewIndex(cfg Config, log zerolog.Logger) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "connect", Err: err}
	}
	return newIndex(c, log), nil
}

func newIndex(c client, log zerolog.Logger) *Index {
	return &Index{client: c, log: log}
}

func (s *Index) Close() error { return s.client.Close() }

func (s *Index) Write(ctx context.Context, name string, fragments []domain.Fragment, recreate bool) error {
	if err := vectorstore.ValidateCollection("write", name); err != nil {
		return err
	}
	dim, err := vectorstore.Dimension(fragments)
	if err != nil {
		return &domain.StorageError{Op: "write", Collection: name, Err: err}
	}
	if !recreate {
		err = s.append(ctx, name, dim, fragments)
	} else {
		err = s.replace(ctx, name, dim, fragments)
	}
	if err != nil {
		var se *domain.StorageError
		if errors.As(err, &se) {
			return err
		}
		return &domain.StorageError{Op: "write", Collection: name, Err: mapErr(err)}
	}
	return nil
}

// replace fills a fresh physical collection, then repoints the alias in one
// UpdateAliases call and drops the previous target.
func (s *Index) replace(ctx context.Context, name string, dim int, fragments []domain.Fragment) error {
	physical := name + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.create(ctx, physical, dim); err != nil {
		return err
	}
	if err := s.upsert(ctx, physical, fragments); err != nil {
		s.drop(physical)
		return err
	}

	previous, err := s.aliasTarget(ctx, name)
	if err != nil {
		s.drop(physical)
		return err
	}
	if previous == "" {
		// a plain collection may squat on the alias name
		names, err := s.client.ListCollections(ctx)
		if err != nil {
			s.drop(physical)
			return err
		}
		if slices.Contains(names, name) {
			s.log.Warn().Str("collection", name).Msg("replacing plain collection with alias")
			if err := s.client.DeleteCollection(ctx, name); err != nil {
				s.drop(physical)
				return err
			}
		}
	}

	ops := []*qdrant.AliasOperations{}
	if previous != "" {
		ops = append(ops, qdrant.NewAliasDelete(name))
	}
	ops = append(ops, qdrant.NewAliasCreate(name, physical))
	if err := s.client.UpdateAliases(ctx, ops); err != nil {
		s.drop(physical)
		return err
	}
	if previous != "" && previous != physical {
		s.drop(previous)
	}
	s.log.Debug().Str("collection", name).Str("physical", physical).Int("points", len(fragments)).Msg("collection replaced")
	return nil
}

func (s *Index) append(ctx context.Context, name string, dim int, fragments []domain.Fragment) error {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if status.Code(unwrap(err)) == codes.NotFound {
		return s.replace(ctx, name, dim, fragments)
	}
	if err != nil {
		return err
	}
	size := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
	if dim != 0 && size != dim && info.GetPointsCount() == 0 {
		// an empty collection has no dimension yet; rebuild it at the incoming one
		return s.replace(ctx, name, dim, fragments)
	}
	if dim != 0 && size != dim {
		return &domain.StorageError{Op: "write", Collection: name,
			Err: fmt.Errorf("got %d, want %d: %w", dim, size, domain.ErrDimensionMismatch)}
	}
	return s.upsert(ctx, name, fragments)
}

func (s *Index) create(ctx context.Context, physical string, dim int) error {
	// Qdrant needs a size even for an empty collection.
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: physical,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(max(dim, 1)),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (s *Index) upsert(ctx context.Context, collection string, fragments []domain.Fragment) error {
	for start := 0; start < len(fragments); start += upsertBatch {
		batch := fragments[start:min(start+upsertBatch, len(fragments))]
		points := make([]*qdrant.PointStruct, len(batch))
		for i, f := range batch {
			payload, err := toPayload(f.Payload)
			if err != nil {
				return err
			}
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectorsDense(f.Vector),
				Payload: payload,
			}
		}
		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Index) aliasTarget(ctx context.Context, alias string) (string, error) {
	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range aliases {
		if a.GetAliasName() == alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

// drop is best effort; a leftover physical collection is harmless.
func (s *Index) drop(physical string) {
	if err := s.client.DeleteCollection(context.Background(), physical); err != nil {
		s.log.Warn().Err(err).Str("collection", physical).Msg("failed to delete collection")
	}
}

func (s *Index) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.ScoredFragment, error) {
	if err := vectorstore.ValidateCollection("query", name); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.ScoredFragment{}, nil
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "query", Collection: name, Err: mapErr(err)}
	}
	out := make([]domain.ScoredFragment, 0, len(points))
	for _, p := range points {
		out = append(out, domain.ScoredFragment{
			Fragment: domain.Fragment{Payload: fromPayload(p.GetPayload())},
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return vectorstore.Rank(out, k), nil
}

func toPayload(p domain.Payload) (map[string]*qdrant.Value, error) {
	return qdrant.TryValueMap(map[string]any{
		keyText:   strings.ToValidUTF8(p.Text, "�"),
		keySource: strings.ToValidUTF8(p.Source, "�"),
		keyPage:   p.Page,
		keyIndex:  p.Index,
	})
}

func fromPayload(m map[string]*qdrant.Value) domain.Payload {
	return domain.Payload{
		Text:   m[keyText].GetStringValue(),
		Source: m[keySource].GetStringValue(),
		Page:   int(m[keyPage].GetIntegerValue()),
		Index:  int(m[keyIndex].GetIntegerValue()),
	}
}

func unwrap(err error) error {
	var qe *qdrant.QdrantError
	if errors.As(err, &qe) {
		return qe.Unwrap()
	}
	return err
}

func mapErr(err error) error {
	switch status.Code(unwrap(err)) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", domain.ErrCollectionNotFound, err)
	case codes.InvalidArgument:
		if strings.Contains(err.Error(), "dimension") {
			return fmt.Errorf("%w: %w", domain.ErrDimensionMismatch, err)
		}
	}
	return err
}
