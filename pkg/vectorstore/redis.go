// Package vectorstore provides passage similarity search over a RediSearch
// vector index.
package vectorstore

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Result is a single passage returned by a similarity search.
type Result struct {
	ID       string
	Score    float64 // cosine similarity in [0,1], higher is better
	Content  string
	Title    string
	SourceID string
	Metadata map[string]string
}

// Searcher performs vector similarity search.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]Result, error)
	Close() error
}

// Store implements Searcher against a RediSearch index. Documents are
// expected to be HASH entries with an `embedding` vector field plus
// `content`, `title` and `source` text fields.
type Store struct {
	client *redis.Client
	index  string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Index    string
}

// New creates a Store connected to the given Redis instance.
func New(opts Options) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		index: opts.Index,
	}
}

// NewWithClient creates a Store over an existing client (for testing).
func NewWithClient(client *redis.Client, index string) *Store {
	return &Store{client: client, index: index}
}

// Search runs a KNN query against the index and returns results ordered by
// similarity, best first.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 10
	}

	query := "*=>[KNN $K @embedding $VEC AS vector_distance]"
	res, err := s.client.FTSearchWithArgs(ctx, s.index, query, &redis.FTSearchOptions{
		Params: map[string]interface{}{
			"K":   topK,
			"VEC": encodeVector(vector),
		},
		SortBy:         []redis.FTSearchSortBy{{FieldName: "vector_distance", Asc: true}},
		DialectVersion: 2,
		LimitOffset:    0,
		Limit:          topK,
	}).Result()
	if err != nil {
		return nil, eris.Wrap(err, "vectorstore: ft.search")
	}

	results := make([]Result, 0, len(res.Docs))
	for _, doc := range res.Docs {
		r := Result{
			ID:       doc.ID,
			Metadata: map[string]string{},
		}
		for k, v := range doc.Fields {
			switch k {
			case "content":
				r.Content = v
			case "title":
				r.Title = v
			case "source":
				r.SourceID = v
			case "vector_distance":
				if d, err := strconv.ParseFloat(v, 64); err == nil {
					// Cosine distance -> similarity.
					r.Score = clamp01(1 - d)
				}
			default:
				r.Metadata[k] = v
			}
		}
		results = append(results, r)
	}

	return results, nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// encodeVector serializes float32s little-endian, the layout RediSearch
// expects for FLOAT32 vector fields.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
