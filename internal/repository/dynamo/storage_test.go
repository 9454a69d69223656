package dynamo

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/bankmatch/internal/repository"
)

var _ repository.Swapper = (*Storage)(nil)

// fakeTable understands only the condition expressions Storage produces
type fakeTable struct {
	mu    sync.Mutex
	items map[string]map[string]dynamodbtypes.AttributeValue
	err   error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]dynamodbtypes.AttributeValue)}
}

func keyOf(item map[string]dynamodbtypes.AttributeValue) string {
	return item["key"].(*dynamodbtypes.AttributeValueMemberS).Value
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	key := keyOf(in.Item)
	current, exists := f.items[key]
	failed := &dynamodbtypes.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}

	switch aws.ToString(in.ConditionExpression) {
	case "":
	case "attribute_not_exists(#k)":
		if exists {
			return nil, failed
		}
	case "#v = :old":
		old := in.ExpressionAttributeValues[":old"].(*dynamodbtypes.AttributeValueMemberB).Value
		if !exists || !bytes.Equal(current["value"].(*dynamodbtypes.AttributeValueMemberB).Value, old) {
			return nil, failed
		}
	default:
		return nil, errors.New("unexpected condition expression")
	}

	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestStorage(t *testing.T) {
	t.Run("get missing", func(t *testing.T) {
		s := NewStorage(newFakeTable(), "records")

		_, err := s.Get(t.Context(), "missing")

		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		s := NewStorage(newFakeTable(), "records")

		require.NoError(t, s.Put(t.Context(), "k", []byte("v1")))
		require.NoError(t, s.Put(t.Context(), "k", []byte("v2")))

		got, err := s.Get(t.Context(), "k")
		require.NoError(t, err)
		require.Equal(t, []byte("v2"), got)
	})

	t.Run("compare and swap", func(t *testing.T) {
		s := NewStorage(newFakeTable(), "records")

		ok, err := s.CompareAndSwap(t.Context(), "k", nil, []byte("1000"))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.CompareAndSwap(t.Context(), "k", nil, []byte("2000"))
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = s.CompareAndSwap(t.Context(), "k", []byte("999"), []byte("2000"))
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = s.CompareAndSwap(t.Context(), "k", []byte("1000"), []byte("2000"))
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Get(t.Context(), "k")
		require.NoError(t, err)
		require.Equal(t, []byte("2000"), got)
	})

	t.Run("client error", func(t *testing.T) {
		table := newFakeTable()
		table.err = errors.New("throttled")
		s := NewStorage(table, "records")

		_, err := s.Get(t.Context(), "k")
		require.ErrorContains(t, err, "throttled")
		require.NotErrorIs(t, err, repository.ErrNotFound)

		_, err = s.CompareAndSwap(t.Context(), "k", nil, []byte("v"))
		require.ErrorContains(t, err, "throttled")
	})
}
