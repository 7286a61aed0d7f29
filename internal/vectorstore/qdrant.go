package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/knoguchi/pokedex/internal/repository"
)

// QdrantStore implements VectorStore using Qdrant. Point IDs are the Dex
// numbers, so the vector index and the record store share record identity.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore creates a new Qdrant vector store client.
// url should be in format "host:port" (e.g., "localhost:6334").
func NewQdrantStore(ctx context.Context, url, collection string) (*QdrantStore, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// If no port specified, assume default
		host = url
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

// Close closes the Qdrant client connection
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the collection with cosine distance if it does not exist
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// Upsert writes records and their vectors to the index
func (s *QdrantStore) Upsert(ctx context.Context, records []*repository.Pokemon, vectors [][]float32) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("got %d records but %d vectors", len(records), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, p := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: recordPayload(p),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// QueryNearest performs cosine nearest-neighbor search. Qdrant reports a
// cosine similarity score (higher = closer); it is converted to cosine
// distance here so callers see the lower-is-better contract.
func (s *QdrantStore) QueryNearest(ctx context.Context, vector []float32, limit int) ([]Neighbor, error) {
	response, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(response))
	for _, point := range response {
		neighbors = append(neighbors, Neighbor{
			Record:   recordFromPayload(int(point.Id.GetNum()), point.Payload),
			Distance: 1 - point.Score,
		})
	}

	return neighbors, nil
}

// Count returns the number of indexed vectors
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

func recordPayload(p *repository.Pokemon) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		"name":      qdrant.NewValueString(p.Name),
		"height":    qdrant.NewValueInt(int64(p.Height)),
		"weight":    qdrant.NewValueInt(int64(p.Weight)),
		"hp":        qdrant.NewValueInt(int64(p.HP)),
		"attack":    qdrant.NewValueInt(int64(p.Attack)),
		"defense":   qdrant.NewValueInt(int64(p.Defense)),
		"s_attack":  qdrant.NewValueInt(int64(p.SpAttack)),
		"s_defense": qdrant.NewValueInt(int64(p.SpDefense)),
		"speed":     qdrant.NewValueInt(int64(p.Speed)),
		"type":      qdrant.NewValueString(p.Type),
		"evo_set":   qdrant.NewValueInt(int64(p.EvoSet)),
		"info":      qdrant.NewValueString(p.Info),
	}
}

func recordFromPayload(id int, payload map[string]*qdrant.Value) repository.Pokemon {
	p := repository.Pokemon{ID: id}
	if payload == nil {
		return p
	}

	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	num := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}

	p.Name = str("name")
	p.Height = num("height")
	p.Weight = num("weight")
	p.HP = num("hp")
	p.Attack = num("attack")
	p.Defense = num("defense")
	p.SpAttack = num("s_attack")
	p.SpDefense = num("s_defense")
	p.Speed = num("speed")
	p.Type = str("type")
	p.EvoSet = num("evo_set")
	p.Info = str("info")

	return p
}

// Ensure QdrantStore implements VectorStore interface.
var _ VectorStore = (*QdrantStore)(nil)
