package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/domain"
)

// TokenRepo stores one token pair per (user_uid, device_uuid).
type TokenRepo struct {
	client    API
	tableName string
}

func NewTokenRepo(client API, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

// Put writes t, replacing any previous pair for the same device.
func (r *TokenRepo) Put(ctx context.Context, t *domain.TokenPair) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TokenRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRefreshToken),
		KeyConditionExpression:    aws.String("#rt = :rt"),
		ExpressionAttributeNames:  map[string]string{"#rt": fieldRefreshToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":rt": str(refreshToken)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("token pair not found: %w", domain.ErrNotFound)
	}
	var t domain.TokenPair
	if err := attributevalue.UnmarshalMap(out.Items[0], &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateAccessToken overwrites the access token of the (userUID, deviceUUID)
// row, provided the row still holds refreshToken and it has not expired at now.
// A re-login or expiry between lookup and write yields ErrUnauthorized.
func (r *TokenRepo) UpdateAccessToken(ctx context.Context, userUID, deviceUUID, refreshToken, accessToken string, accessExpiry, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey(fieldUserUID, userUID, fieldDeviceUUID, deviceUUID),
		UpdateExpression:    aws.String("SET #at = :at, #ate = :ate, #ts = :ts"),
		ConditionExpression: aws.String("#rt = :rt AND #rte > :now"),
		ExpressionAttributeNames: map[string]string{
			"#at":  fieldAccessToken,
			"#ate": fieldAccessTokenExpiry,
			"#ts":  fieldUpdatedAt,
			"#rt":  fieldRefreshToken,
			"#rte": fieldRefreshTokenExpiry,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":at":  str(accessToken),
			":ate": unix(accessExpiry),
			":ts":  timestamp(now),
			":rt":  str(refreshToken),
			":now": unix(now),
		},
	})
	if isConditionFailure(err) {
		return fmt.Errorf("refresh token no longer valid: %w", domain.ErrUnauthorized)
	}
	return err
}
