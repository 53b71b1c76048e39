package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Uniqueness of username, email and mobile number is enforced by guard rows
// in the identifiers table, written in the same transaction as the user.
type UserRepo struct {
	client           API
	tableName        string
	identifiersTable string
}

func NewUserRepo(client API, tableName, identifiersTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, identifiersTable: identifiersTable}
}

func identifierKeys(u *domain.User) []string {
	return []string{
		"username#" + u.Username,
		"email#" + u.Email,
		"mobile#" + u.MobileNumber,
	}
}

// Create inserts u. Returns ErrConflict when the uid, username, email or
// mobile number is already taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
			ExpressionAttributeNames: map[string]string{"#pk": fieldUserUID},
		},
	}}
	for _, ident := range identifierKeys(u) {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.identifiersTable),
				Item: map[string]types.AttributeValue{
					fieldIdentifier: str(ident),
					fieldUserUID:    str(u.UserUID),
				},
				ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
				ExpressionAttributeNames: map[string]string{"#pk": fieldIdentifier},
			},
		})
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if isConditionFailure(err) {
		return fmt.Errorf("user already exists: %w", domain.ErrConflict)
	}
	return err
}

// Exists reports whether any user already holds username, email or mobile.
func (r *UserRepo) Exists(ctx context.Context, username, email, mobile string) (bool, error) {
	lookups := []struct{ index, attr, value string }{
		{indexUsername, fieldUsername, username},
		{indexEmail, fieldEmail, email},
		{indexMobileNumber, fieldMobileNumber, mobile},
	}
	for _, l := range lookups {
		_, err := r.queryGSI(ctx, l.index, l.attr, l.value)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

func (r *UserRepo) Get(ctx context.Context, userUID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserUID, userUID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUsername, fieldUsername, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": str(value)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
