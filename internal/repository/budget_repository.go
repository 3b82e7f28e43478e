package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/alumtek/budgets-api/internal/models"
	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

// BudgetRepository persists immutable budget version documents in DynamoDB.
//
// Table layout:
//   - PK: budget_id (S)
//   - SK: version (N)
//
// The composite key gives the store-level uniqueness guarantee on
// (BudgetID, Version): a conditional put rejects a duplicate version, which
// the versioning service turns into a recompute-and-retry.
type BudgetRepository struct {
	ddb   *dynamodb.Client
	table string
}

// NewBudgetRepository constructs the repository for the given table.
func NewBudgetRepository(ddb *dynamodb.Client, table string) *BudgetRepository {
	return &BudgetRepository{ddb: ddb, table: table}
}

// Add inserts a new version document. The caller must have validated the
// budget already; this is a pure store operation. A duplicate
// (BudgetID, Version) pair fails with ErrVersionConflict.
func (r *BudgetRepository) Add(ctx context.Context, budget *models.Budget) (string, error) {
	if budget.InternalID == "" {
		budget.InternalID = uuid.NewString()
	}

	item, err := attributevalue.MarshalMap(budget)
	if err != nil {
		return "", fmt.Errorf("marshal budget %s v%d: %w", budget.BudgetID, budget.Version, err)
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "budget_id",
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return "", appErrors.Wrap(err, appErrors.ErrVersionConflict.Code, appErrors.ErrVersionConflict.Status,
				fmt.Sprintf("budget %s version %d already exists", budget.BudgetID, budget.Version))
		}
		return "", storeErr("put budget version", err)
	}

	return budget.InternalID, nil
}

// GetByInternalID returns a single version by its document identity, or nil
// when no document matches.
func (r *BudgetRepository) GetByInternalID(ctx context.Context, internalID string) (*models.Budget, error) {
	var match *models.Budget
	err := r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("internal_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: internalID},
		},
	}, func(b models.Budget) {
		budget := b
		match = &budget
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// GetByBudgetID returns every version sharing a logical BudgetID. The result
// is unordered; callers sort by Version themselves.
func (r *BudgetRepository) GetByBudgetID(ctx context.Context, budgetID string) ([]models.Budget, error) {
	var budgets []models.Budget
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("#pk = :id"),
		ExpressionAttributeNames: map[string]string{
			"#pk": "budget_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: budgetID},
		},
	}

	for {
		out, err := r.ddb.Query(ctx, input)
		if err != nil {
			return nil, storeErr("query budget versions", err)
		}
		var page []models.Budget
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal budget versions: %w", err)
		}
		budgets = append(budgets, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return budgets, nil
}

// GetByCustomerDNI returns all versions across all BudgetIDs belonging to a
// customer. Full scan; acceptable at current data volume.
func (r *BudgetRepository) GetByCustomerDNI(ctx context.Context, dni string) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("#customer.#dni = :dni"),
		ExpressionAttributeNames: map[string]string{
			"#customer": "customer",
			"#dni":      "dni",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dni": &types.AttributeValueMemberS{Value: dni},
		},
	}, func(b models.Budget) {
		budgets = append(budgets, b)
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// GetAll returns every stored version document.
func (r *BudgetRepository) GetAll(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	err := r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.table)}, func(b models.Budget) {
		budgets = append(budgets, b)
	})
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

// GetByDateRange returns versions created inside the inclusive range. The
// range is applied in process after a full scan.
func (r *BudgetRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]models.Budget, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.Budget, 0, len(all))
	for _, b := range all {
		if b.CreationDate.Before(from) || b.CreationDate.After(to) {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered, nil
}

// ChangeStatusParams carries the fields a status transition rewrites on each
// version document. Comment and EndDate are applied only when set; the
// transition service decides both.
type ChangeStatusParams struct {
	Status  models.BudgetStatus
	Comment *string
	EndDate *time.Time
}

// ChangeStatus rewrites the status field on every version document sharing
// the BudgetID. Status is a property of the logical budget, not of a single
// snapshot, so history is deliberately rewritten. Returns the number of
// documents updated; zero means the BudgetID is unknown. Re-applying the same
// status is a no-op at the data level, which keeps retries safe.
func (r *BudgetRepository) ChangeStatus(ctx context.Context, budgetID string, params ChangeStatusParams) (int, error) {
	versions, err := r.GetByBudgetID(ctx, budgetID)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, nil
	}

	expr := "SET #status = :status"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(params.Status)},
	}
	names := map[string]string{
		"#status": "status",
	}
	if params.Comment != nil {
		expr += ", #comment = :comment"
		values[":comment"] = &types.AttributeValueMemberS{Value: *params.Comment}
		names["#comment"] = "comment"
	}
	if params.EndDate != nil {
		expr += ", #end_date = :end_date"
		values[":end_date"] = &types.AttributeValueMemberS{Value: params.EndDate.UTC().Format(time.RFC3339Nano)}
		names["#end_date"] = "end_date"
	}

	for _, v := range versions {
		_, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(r.table),
			Key: map[string]types.AttributeValue{
				"budget_id": &types.AttributeValueMemberS{Value: budgetID},
				"version":   &types.AttributeValueMemberN{Value: strconv.Itoa(v.Version)},
			},
			UpdateExpression:          aws.String(expr),
			ExpressionAttributeValues: values,
			ExpressionAttributeNames:  names,
		})
		if err != nil {
			return 0, storeErr(fmt.Sprintf("update status of %s v%d", budgetID, v.Version), err)
		}
	}

	return len(versions), nil
}

func (r *BudgetRepository) scan(ctx context.Context, input *dynamodb.ScanInput, collect func(models.Budget)) error {
	for {
		out, err := r.ddb.Scan(ctx, input)
		if err != nil {
			return storeErr("scan budgets", err)
		}
		var page []models.Budget
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return fmt.Errorf("unmarshal budgets: %w", err)
		}
		for _, b := range page {
			collect(b)
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func storeErr(op string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status,
		"document store: "+op)
}
