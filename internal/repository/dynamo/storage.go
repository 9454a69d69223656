package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

// API is the subset of *dynamodb.Client the storage needs
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Table is expected to have a string partition key named 'key'
type item struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

type Storage struct {
	client    API
	tableName string
}

func NewStorage(client API, tableName string) *Storage {
	return &Storage{
		client:    client,
		tableName: tableName,
	}
}

// Connect creates storage with credentials and region from the default AWS config chain
func Connect(ctx context.Context, tableName string) (*Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("cant load aws config. Err: %w", err)
	}

	return NewStorage(dynamodb.NewFromConfig(cfg), tableName), nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb error: %w", err)
	}

	if result.Item == nil {
		return nil, repository.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %q: %w", key, err)
	}

	return it.Value, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	input, err := s.putInput(key, value)
	if err != nil {
		return err
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("dynamodb error: %w", err)
	}

	return nil
}

func (s *Storage) CompareAndSwap(ctx context.Context, key string, oldValue []byte, newValue []byte) (bool, error) {
	input, err := s.putInput(key, newValue)
	if err != nil {
		return false, err
	}

	if oldValue == nil {
		input.ConditionExpression = aws.String("attribute_not_exists(#k)")
		input.ExpressionAttributeNames = map[string]string{"#k": "key"}
	} else {
		input.ConditionExpression = aws.String("#v = :old")
		input.ExpressionAttributeNames = map[string]string{"#v": "value"}
		input.ExpressionAttributeValues = map[string]dynamodbtypes.AttributeValue{
			":old": &dynamodbtypes.AttributeValueMemberB{Value: oldValue},
		}
	}

	_, err = s.client.PutItem(ctx, input)

	var condErr *dynamodbtypes.ConditionalCheckFailedException
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &condErr):
		return false, nil
	default:
		return false, fmt.Errorf("dynamodb error: %w", err)
	}
}

func (s *Storage) putInput(key string, value []byte) (*dynamodb.PutItemInput, error) {
	av, err := attributevalue.MarshalMap(item{Key: key, Value: value, UpdatedAt: time.Now().UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %q: %w", key, err)
	}

	return &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}, nil
}

func keyAttr(key string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		"key": &dynamodbtypes.AttributeValueMemberS{Value: key},
	}
}
