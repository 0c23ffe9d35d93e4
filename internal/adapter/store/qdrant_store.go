package store

import (
	"context"
	"fmt"

	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantStore is the profile knowledge base: snippets embedded and searched by cosine
// similarity.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	embedder       repository.Embedder
	minScore       float32
	log            *zap.Logger
}

func NewQdrantStore(client *qdrant.Client, collectionName string, embedder repository.Embedder, minScore float32, log *zap.Logger) *QdrantStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &QdrantStore{
		client:         client,
		collectionName: collectionName,
		embedder:       embedder,
		minScore:       minScore,
		log:            log,
	}
}

func (s *QdrantStore) InitCollection(ctx context.Context, dim uint64) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return err
		}
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	// Keyword index on source so ingest can be inspected per section.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collectionName,
		FieldName:      "source",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		s.log.Warn("could not create source index (might already exist)", zap.Error(err))
	}
	return nil
}

// Search embeds the query and returns up to topK snippets. A missing collection is an
// empty index, not an error.
func (s *QdrantStore) Search(ctx context.Context, query string, topK int) ([]entity.Snippet, error) {
	if topK <= 0 {
		return nil, nil
	}
	vector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	req := &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if s.minScore > 0 {
		req.ScoreThreshold = qdrant.PtrOf(s.minScore)
	}

	res, err := s.client.Query(ctx, req)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	snippets := make([]entity.Snippet, 0, len(res))
	for _, hit := range res {
		content := hit.Payload["content"].GetStringValue()
		if content == "" {
			continue
		}
		snippets = append(snippets, entity.Snippet{
			Content: content,
			Source:  hit.Payload["source"].GetStringValue(),
			Score:   hit.Score,
		})
	}
	return snippets, nil
}

// Upsert embeds and stores snippets. Point IDs are derived from source and content, so
// re-ingesting the same profile overwrites instead of duplicating.
func (s *QdrantStore) Upsert(ctx context.Context, snippets []entity.Snippet) (int, error) {
	if len(snippets) == 0 {
		return 0, nil
	}
	texts := make([]string, len(snippets))
	for i, sn := range snippets {
		texts[i] = sn.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed snippets: %w", err)
	}

	points := make([]*qdrant.PointStruct, 0, len(snippets))
	for i, sn := range snippets {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(sn).String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content": sn.Content,
				"source":  sn.Source,
			}),
		})
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert: %w", err)
	}
	return len(points), nil
}

// PointID is the stable UUIDv5 of a snippet.
func PointID(sn entity.Snippet) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sn.Source+"\x00"+sn.Content))
}
