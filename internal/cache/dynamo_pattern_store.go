package cache

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/nextdeparture/internal/config"
	"github.com/bbernstein/nextdeparture/internal/models"
)

// DynamoPatternStore keeps resolved stop times in DynamoDB, keyed by
// feed version and stop with the service date as sort key
type DynamoPatternStore struct {
	client    DynamoDBClient
	tableName string
	cfg       *config.CacheConfig
	clock     clock
}

func NewDynamoPatternStore(client DynamoDBClient, cacheConfig *config.CacheConfig) *DynamoPatternStore {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	return &DynamoPatternStore{
		client:    client,
		tableName: cacheConfig.DynamoTableName,
		cfg:       cacheConfig,
		clock:     systemClock{},
	}
}

// GetStopTimes returns the cached record, or nil when it is missing or expired
func (s *DynamoPatternStore) GetStopTimes(ctx context.Context, feedVersion, stopID, serviceDate string) (*models.StopTimesRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"cacheKey":    &types.AttributeValueMemberS{Value: models.StopTimesCacheKey(feedVersion, stopID)},
			"serviceDate": &types.AttributeValueMemberS{Value: serviceDate},
		},
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting stop times from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record models.StopTimesRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling stop times record: %w", err)
	}

	if s.clock.Now().Unix() >= record.TTL {
		log.Debug().
			Str("stop_id", stopID).
			Str("service_date", serviceDate).
			Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

// SaveStopTimes validates and writes a record with a fresh TTL
func (s *DynamoPatternStore) SaveStopTimes(ctx context.Context, record models.StopTimesRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid stop times record: %w", err)
	}

	now := s.clock.Now().Unix()
	record.LastUpdated = now
	record.TTL = now + int64(s.cfg.GetDynamoTTL().Seconds())

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling stop times record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting stop times in DynamoDB: %w", err)
	}

	log.Debug().
		Str("stop_id", record.StopID).
		Str("service_date", record.ServiceDate).
		Int("pattern_count", len(record.Patterns)).
		Msg("Saved stop times to cache")

	return nil
}
