package s3

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDDB implements DDBClient with conditional-write semantics in memory.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[string]map[string]types.AttributeValue // pk -> sk -> item
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]map[string]types.AttributeValue)}
}

func (f *fakeDDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	sk := params.Item["version"].(*types.AttributeValueMemberN).Value

	if f.items[pk] == nil {
		f.items[pk] = make(map[string]map[string]types.AttributeValue)
	}
	if _, exists := f.items[pk][sk]; exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[pk][sk] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var versions []uint64
	for sk := range f.items[pk] {
		var v uint64
		fmt.Sscanf(sk, "%d", &v)
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	item := f.items[pk][fmt.Sprintf("%d", versions[0])]
	return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil
}

func TestCommitStorePublishAndLatest(t *testing.T) {
	ctx := context.Background()
	cs := NewCommitStore(newFakeDDB(), "rmigo-commits", "s3://bucket/models")

	_, ok, err := cs.Latest(ctx, "ints_64")
	require.NoError(t, err)
	assert.False(t, ok)

	v1, err := cs.Publish(ctx, "ints_64", VersionPrefix("ints_64", 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1)

	v2, err := cs.Publish(ctx, "ints_64", VersionPrefix("ints_64", 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2)

	head, ok, err := cs.Latest(ctx, "ints_64")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), head.Version)
	assert.Equal(t, "ints_64/v000002", head.Prefix)
}

func TestCommitStoreNamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	cs := NewCommitStore(newFakeDDB(), "rmigo-commits", "s3://bucket/models")

	_, err := cs.Publish(ctx, "ints_64", VersionPrefix("ints_64", 1))
	require.NoError(t, err)

	_, ok, err := cs.Latest(ctx, "books")
	require.NoError(t, err)
	assert.False(t, ok)
}

// staleDDB serves queries from a snapshot but writes through, so Publish
// races against a version that already exists.
type staleDDB struct {
	*fakeDDB
	snapshot *fakeDDB
}

func (s *staleDDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return s.snapshot.Query(ctx, params)
}

func TestCommitStoreConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	ddb := newFakeDDB()
	winner := NewCommitStore(ddb, "rmigo-commits", "s3://bucket/models")

	_, err := winner.Publish(ctx, "ints_64", VersionPrefix("ints_64", 1))
	require.NoError(t, err)

	// The loser sees an empty commit log and tries to claim version 1,
	// which the conditional write rejects.
	loser := NewCommitStore(&staleDDB{fakeDDB: ddb, snapshot: newFakeDDB()}, "rmigo-commits", "s3://bucket/models")
	_, err = loser.Publish(ctx, "ints_64", VersionPrefix("ints_64", 1))
	assert.ErrorIs(t, err, ErrConcurrentCommit)

	head, ok, err := winner.Latest(ctx, "ints_64")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), head.Version)
}
