package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrConcurrentCommit is returned when another trainer published a version
// concurrently. The caller should re-train or retry against the new head.
var ErrConcurrentCommit = errors.New("concurrent commit detected")

// DDBClient is the subset of the DynamoDB API the commit store depends on.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Commit records a published model version.
type Commit struct {
	// Version is a monotonically increasing sequence number per namespace.
	Version uint64
	// Prefix is the blob name prefix holding the committed model files,
	// e.g. "ints_64/v000003". Readers load manifest.json under it.
	Prefix string
}

// CommitStore is a DynamoDB-backed commit log for model versions stored in S3.
//
// S3 offers atomic single-object puts but no compare-and-swap across the two
// files a model consists of, so concurrent trainers could interleave a
// manifest from one version with parameters from another. The commit log
// closes that gap: trainers upload the model under a fresh versioned prefix,
// then publish it with a conditional write that fails if the version was
// taken.
//
// Table schema:
//   - Partition key: base_uri (string), the s3://bucket/prefix of the store
//   - Sort key: version (number)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name rmigo-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	client    DDBClient
	tableName string
	baseURI   string
}

// NewCommitStore creates a commit log for models under baseURI.
// baseURI should be the "s3://bucket/prefix" the companion Store writes to.
func NewCommitStore(client DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		client:    client,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (c *CommitStore) partitionKey(namespace string) string {
	return c.baseURI + "#" + namespace
}

// Latest returns the most recent commit for a namespace.
// ok is false when the namespace has no commits yet.
func (c *CommitStore) Latest(ctx context.Context, namespace string) (Commit, bool, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.partitionKey(namespace)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return Commit{}, false, fmt.Errorf("query commit log: %w", err)
	}

	if len(resp.Items) == 0 {
		return Commit{}, false, nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return Commit{}, false, errors.New("commit log: malformed version attribute")
	}
	prefixAttr, ok := item["prefix"].(*types.AttributeValueMemberS)
	if !ok {
		return Commit{}, false, errors.New("commit log: malformed prefix attribute")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return Commit{}, false, fmt.Errorf("commit log: parse version: %w", err)
	}

	return Commit{Version: version, Prefix: prefixAttr.Value}, true, nil
}

// Publish commits a new model version for a namespace. The model files must
// already be fully uploaded under prefix. Returns the committed version, or
// ErrConcurrentCommit if another trainer won the race.
func (c *CommitStore) Publish(ctx context.Context, namespace, prefix string) (uint64, error) {
	head, _, err := c.Latest(ctx, namespace)
	if err != nil {
		return 0, err
	}

	newVersion := head.Version + 1

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: c.partitionKey(namespace)},
			"version":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"prefix":   &types.AttributeValueMemberS{Value: prefix},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentCommit
		}
		return 0, fmt.Errorf("publish version %d: %w", newVersion, err)
	}

	return newVersion, nil
}

// VersionPrefix returns the conventional blob prefix for a model version,
// e.g. VersionPrefix("ints_64", 3) == "ints_64/v000003".
func VersionPrefix(namespace string, version uint64) string {
	return fmt.Sprintf("%s/v%06d", namespace, version)
}
