package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"taskapi/internal/models"
)

const (
	dynamoKeyAttr         = "taskId"
	dynamoAttachmentsAttr = "attachments"
	removeAttachmentTries = 3
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps one item per task in a DynamoDB table keyed by taskId.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore wraps a DynamoDB client bound to table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttr: &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return unmarshalTask(out.Item)
}

func (s *DynamoStore) PutTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	task.Normalize()
	item, err := attributevalue.MarshalMap(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put task %s: %w", task.ID, err)
	}
	return nil
}

func (s *DynamoStore) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error) {
	upd := expression.Set(expression.Name("updatedAt"), expression.Value(update.UpdatedAt))
	if update.Title != nil {
		upd = upd.Set(expression.Name("title"), expression.Value(*update.Title))
	}
	if update.Description != nil {
		upd = upd.Set(expression.Name("description"), expression.Value(*update.Description))
	}
	if update.Status != nil {
		upd = upd.Set(expression.Name("status"), expression.Value(*update.Status))
	}
	if update.Priority != nil {
		upd = upd.Set(expression.Name("priority"), expression.Value(*update.Priority))
	}
	if update.DueDate != nil {
		if *update.DueDate == "" {
			upd = upd.Remove(expression.Name("dueDate"))
		} else {
			upd = upd.Set(expression.Name("dueDate"), expression.Value(*update.DueDate))
		}
	}

	expr, err := expression.NewBuilder().
		WithUpdate(upd).
		WithCondition(expression.AttributeExists(expression.Name(dynamoKeyAttr))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return unmarshalTask(out.Attributes)
}

func (s *DynamoStore) DeleteTask(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(id),
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// ScanTasks follows LastEvaluatedKey until the table is exhausted.
func (s *DynamoStore) ScanTasks(ctx context.Context, filter ScanFilter) ([]models.Task, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if filter.Status != "" {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("status").Equal(expression.Value(filter.Status))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("build filter expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	tasks := []models.Task{}
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan tasks: %w", err)
		}
		for _, item := range page.Items {
			task, err := unmarshalTask(item)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *task)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

// AppendAttachment uses list_append over if_not_exists so the write is a
// single atomic update even when the attribute is missing.
func (s *DynamoStore) AppendAttachment(ctx context.Context, taskID string, attachment models.Attachment) error {
	name := expression.Name(dynamoAttachmentsAttr)
	upd := expression.Set(name, expression.ListAppend(
		expression.IfNotExists(name, expression.Value([]models.Attachment{})),
		expression.Value([]models.Attachment{attachment}),
	))
	expr, err := expression.NewBuilder().
		WithUpdate(upd).
		WithCondition(expression.AttributeExists(expression.Name(dynamoKeyAttr))).
		Build()
	if err != nil {
		return fmt.Errorf("build append expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(taskID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("append attachment to task %s: %w", taskID, err)
	}
	return nil
}

// RemoveAttachment removes attachments[i] guarded by a condition on the
// entry's fileId. A concurrent reorder fails the condition and the lookup is
// retried.
func (s *DynamoStore) RemoveAttachment(ctx context.Context, taskID, fileID string) error {
	for attempt := 0; attempt < removeAttachmentTries; attempt++ {
		task, err := s.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		idx := task.FindAttachment(fileID)
		if idx < 0 {
			return ErrNotFound
		}

		entry := fmt.Sprintf("%s[%d]", dynamoAttachmentsAttr, idx)
		expr, err := expression.NewBuilder().
			WithUpdate(expression.Remove(expression.Name(entry))).
			WithCondition(expression.Name(entry + ".fileId").Equal(expression.Value(fileID))).
			Build()
		if err != nil {
			return fmt.Errorf("build remove expression: %w", err)
		}

		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.table),
			Key:                       s.key(taskID),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err == nil {
			return nil
		}
		if !isConditionFailed(err) {
			return fmt.Errorf("remove attachment %s from task %s: %w", fileID, taskID, err)
		}
	}
	return fmt.Errorf("remove attachment %s from task %s: concurrent modification", fileID, taskID)
}

func unmarshalTask(item map[string]types.AttributeValue) (*models.Task, error) {
	var task models.Task
	if err := attributevalue.UnmarshalMap(item, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	task.Normalize()
	return &task, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func sortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
