package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/fest-portal-api/internal/domain"
)

// Attribute names used in key and condition expressions.
const (
	fieldEmail     = "email"
	fieldCode      = "code"
	fieldVerified  = "verified"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"
)

// PendingVerificationRepo stores one OTP record per email.
// PK: email. Expired items are removed by the table TTL on expires_at.
type PendingVerificationRepo struct {
	client    ItemAPI
	tableName string
}

func NewPendingVerificationRepo(client ItemAPI, tableName string) *PendingVerificationRepo {
	return &PendingVerificationRepo{client: client, tableName: tableName}
}

// Upsert replaces any existing record for p.Email in a single PutItem.
func (r *PendingVerificationRepo) Upsert(ctx context.Context, p *domain.PendingVerification) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal pending verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PendingVerificationRepo) Get(ctx context.Context, email string) (*domain.PendingVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending verification not found: %w", domain.ErrNotFound)
	}
	var p domain.PendingVerification
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkVerified flags the record as verified only if it still holds code.
// A concurrent re-issue that replaced the code yields domain.ErrMismatch.
func (r *PendingVerificationRepo) MarkVerified(ctx context.Context, email, code string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldVerified: true})
	if err != nil {
		return err
	}
	ue.Names["#code"] = fieldCode
	ue.Values[":code"] = &types.AttributeValueMemberS{Value: code}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#code = :code"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("code no longer current: %w", domain.ErrMismatch)
		}
		return err
	}
	return nil
}

// RecordFailedAttempt atomically increments the wrong-code counter and
// returns the new count. A missing record yields domain.ErrNotFound.
func (r *PendingVerificationRepo) RecordFailedAttempt(ctx context.Context, email string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String("ADD #attempts :one"),
		ConditionExpression:       aws.String("attribute_exists(#email)"),
		ExpressionAttributeNames:  map[string]string{"#attempts": fieldAttempts, "#email": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, fmt.Errorf("pending verification not found: %w", domain.ErrNotFound)
		}
		return 0, err
	}
	var n int
	if err := attributevalue.Unmarshal(out.Attributes[fieldAttempts], &n); err != nil {
		return 0, fmt.Errorf("unmarshal attempts: %w", err)
	}
	return n, nil
}

// Delete removes the record for email. Deleting a missing record is not an error.
func (r *PendingVerificationRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}
