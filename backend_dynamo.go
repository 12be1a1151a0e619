package funcache

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI captures the subset of DynamoDB client methods used by the
// backend.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const (
	dynamoEnsureTableMaxAttempts = 20
	dynamoEnsureTableRetryDelay  = 150 * time.Millisecond
)

// dynamoBackend stores one item per key with a binary partition key prefixed
// by the namespace. The write time travels in its own numeric attribute so
// lookups never have to parse the payload.
type dynamoBackend struct {
	client DynamoAPI
	table  string
	prefix string
}

func openDynamoBackend(ctx context.Context, namespace string, cfg Config) (Backend, error) {
	client := cfg.DynamoClient
	if client == nil {
		built, err := newDynamoClient(ctx, cfg)
		if err != nil {
			return nil, storageErr("build dynamodb client", err)
		}
		client = built
	}
	if err := ensureDynamoTable(ctx, client, cfg.DynamoTable); err != nil {
		return nil, storageErr("ensure dynamodb table", err)
	}
	return &dynamoBackend{
		client: client,
		table:  cfg.DynamoTable,
		prefix: namespace + ":",
	}, nil
}

func newDynamoClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.DynamoRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")),
	)
	if err != nil {
		return nil, err
	}
	if cfg.DynamoEndpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.DynamoEndpoint, HostnameImmutable: true}, nil
		})
		awsCfg.EndpointResolverWithOptions = resolver
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

func ensureDynamoTable(ctx context.Context, client DynamoAPI, table string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}
	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("k"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("k"), AttributeType: types.ScalarAttributeTypeB},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return err
		}
	}
	for attempt := 0; attempt < dynamoEnsureTableMaxAttempts; attempt++ {
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err == nil && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dynamoEnsureTableRetryDelay):
		}
	}
	return errors.New("dynamodb table did not become active")
}

func (b *dynamoBackend) Driver() Driver { return DriverDynamo }

func (b *dynamoBackend) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		ConsistentRead: aws.Bool(true),
		Key:            b.itemKey(key),
	})
	if err != nil {
		return Entry{}, false, storageErr("lookup entry", err)
	}
	if out.Item == nil {
		return Entry{}, false, nil
	}
	entry, err := decodeDynamoItem(out.Item)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (b *dynamoBackend) Store(ctx context.Context, key Key, entry Entry) error {
	_, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item: map[string]types.AttributeValue{
			"k":  &types.AttributeValueMemberB{Value: b.rawKey(key)},
			"v":  &types.AttributeValueMemberB{Value: cloneBytes(entry.Payload)},
			"wa": &types.AttributeValueMemberN{Value: strconv.FormatInt(entry.WrittenAt.UnixNano(), 10)},
		},
	})
	if err != nil {
		return storageErr("store entry", err)
	}
	return nil
}

func (b *dynamoBackend) Delete(ctx context.Context, key Key) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key:       b.itemKey(key),
	})
	if err != nil {
		return storageErr("delete entry", err)
	}
	return nil
}

func (b *dynamoBackend) Purge(ctx context.Context) error {
	var start map[string]types.AttributeValue
	for {
		out, err := b.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(b.table),
			ProjectionExpression: aws.String("k"),
			ExclusiveStartKey:    start,
		})
		if err != nil {
			return storageErr("purge namespace", err)
		}
		for _, item := range out.Items {
			k, ok := item["k"].(*types.AttributeValueMemberB)
			if !ok || !bytes.HasPrefix(k.Value, []byte(b.prefix)) {
				continue
			}
			if _, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(b.table),
				Key:       map[string]types.AttributeValue{"k": k},
			}); err != nil {
				return storageErr("purge namespace", err)
			}
		}
		if out.LastEvaluatedKey == nil {
			return nil
		}
		start = out.LastEvaluatedKey
	}
}

func (b *dynamoBackend) Close() error { return nil }

func (b *dynamoBackend) itemKey(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"k": &types.AttributeValueMemberB{Value: b.rawKey(key)},
	}
}

func (b *dynamoBackend) rawKey(key Key) []byte {
	return append([]byte(b.prefix), key...)
}

func decodeDynamoItem(item map[string]types.AttributeValue) (Entry, error) {
	v, ok := item["v"].(*types.AttributeValueMemberB)
	if !ok {
		return Entry{}, ErrCorruptEntry
	}
	wa, ok := item["wa"].(*types.AttributeValueMemberN)
	if !ok {
		return Entry{}, ErrCorruptEntry
	}
	nanos, err := strconv.ParseInt(wa.Value, 10, 64)
	if err != nil {
		return Entry{}, ErrCorruptEntry
	}
	return Entry{WrittenAt: time.Unix(0, nanos), Payload: cloneBytes(v.Value)}, nil
}
