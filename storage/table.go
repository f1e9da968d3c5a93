package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"promptly/domain"
)

const promptPartition = "prompts"

// TableSource reads prompts mirrored into an Azure Table.
type TableSource struct {
	table  *aztables.Client
	name   string
	logger log.FieldLogger
}

// NewTableSource creates a TableSource from the given connection string.
func NewTableSource(connStr, tableName string, logger log.FieldLogger) (*TableSource, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &TableSource{table: svc.NewClient(tableName), name: tableName, logger: logger}, nil
}

// Key identifies the table for caching.
func (s *TableSource) Key() string {
	return "table:" + s.name
}

type promptEntity struct {
	aztables.Entity
	Title    string `json:"Title"`
	Text     string `json:"Text"`
	Category string `json:"Category"`
	Order    int    `json:"Order"`
}

// FetchPrompts lists the prompt partition and normalizes it like sheet rows.
func (s *TableSource) FetchPrompts(ctx context.Context) ([]domain.Prompt, error) {
	filter := "PartitionKey eq '" + promptPartition + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var raw [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classifyTableError(err, s.name)
		}
		raw = append(raw, resp.Entities...)
	}
	rows, err := decodePromptEntities(raw)
	if err != nil {
		return nil, classifyTableError(err, s.name)
	}
	prompts := NormalizeRows(rows, s.logger.WithField("table", s.name))
	s.logger.WithFields(log.Fields{"table": s.name, "prompts": len(prompts)}).Info("loaded prompts from table")
	return prompts, nil
}

// decodePromptEntities turns table entities into sheet-shaped rows ordered
// by their Order column.
func decodePromptEntities(raw [][]byte) ([][]any, error) {
	ents := make([]promptEntity, 0, len(raw))
	for _, data := range raw {
		var ent promptEntity
		if err := sonic.Unmarshal(data, &ent); err != nil {
			return nil, fmt.Errorf("decode prompt entity: %w", err)
		}
		ents = append(ents, ent)
	}
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Order < ents[j].Order })

	rows := make([][]any, len(ents))
	for i, ent := range ents {
		rows[i] = []any{ent.RowKey, ent.Title, ent.Text, ent.Category}
	}
	return rows, nil
}

// EnsureTable creates the prompt table if it does not exist yet.
func (s *TableSource) EnsureTable(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return err
		}
	}
	return nil
}

// Seed upserts prompts into the table, recording their position so reads
// preserve the input order.
func (s *TableSource) Seed(ctx context.Context, prompts []domain.Prompt) error {
	for i, p := range prompts {
		ent := promptEntity{
			Entity:   aztables.Entity{PartitionKey: promptPartition, RowKey: p.ID},
			Title:    p.Title,
			Text:     p.Text,
			Category: p.Category,
			Order:    i,
		}
		data, err := sonic.Marshal(ent)
		if err != nil {
			return err
		}
		if _, err := s.table.UpsertEntity(ctx, data, nil); err != nil {
			return fmt.Errorf("upsert prompt %s: %w", p.ID, err)
		}
	}
	return nil
}

func classifyTableError(err error, table string) *domain.LoadError {
	out := &domain.LoadError{Err: err}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 401:
			out.Kind = domain.KindAuthentication
			out.Title = "Authentication Error"
			out.Hint = "Table storage rejected the credentials. Check STORAGE_CONNECTION_STRING."
			return out
		case 403:
			out.Kind = domain.KindPermissionDenied
			out.Title = "Permission Denied"
			out.Hint = fmt.Sprintf("The storage account key cannot read table %q.", table)
			return out
		case 404:
			out.Kind = domain.KindNotFound
			out.Title = "Table Not Found"
			out.Hint = fmt.Sprintf("Table %q does not exist. Run seed-table or check PROMPTS_TABLE.", table)
			return out
		}
	}
	out.Kind = domain.KindUnknown
	out.Title = "Error Loading Prompts"
	out.Hint = "Could not read prompts from table storage. Raw error: " + err.Error()
	return out
}
