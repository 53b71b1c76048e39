package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-todo-auth/internal/domain"
)

// TodoRepo provides typed DynamoDB operations for the todos table.
type TodoRepo struct {
	client    API
	tableName string
}

func NewTodoRepo(client API, tableName string) *TodoRepo {
	return &TodoRepo{client: client, tableName: tableName}
}

func (r *TodoRepo) Put(ctx context.Context, t *domain.Todo) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TodoRepo) Get(ctx context.Context, todoUID string) (*domain.Todo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldTodoUID, todoUID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns every todo owned by userUID, following pagination.
func (r *TodoRepo) ListByUser(ctx context.Context, userUID string) ([]domain.Todo, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserUID),
		KeyConditionExpression:    aws.String("#uid = :uid"),
		ExpressionAttributeNames:  map[string]string{"#uid": fieldUserUID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": str(userUID)},
	}
	var todos []domain.Todo
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Todo
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		todos = append(todos, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return todos, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Update applies a partial update. Returns ErrNotFound if the todo is gone.
func (r *TodoRepo) Update(ctx context.Context, todoUID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldTodoUID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldTodoUID, todoUID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailure(err) {
		return fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *TodoRepo) Delete(ctx context.Context, todoUID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldTodoUID, todoUID),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldTodoUID},
	})
	if isConditionFailure(err) {
		return fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	return err
}
