package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// databaseQuerier is the subset of notionapi.DatabaseService used by
// NotionSource.
type databaseQuerier interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionSource reads auditable tasks from a Notion database. Pages whose
// status property equals the auditable status are returned, most recently
// edited first, one page of results per fetch.
type NotionSource struct {
	cfg     models.NotionConfig
	queries databaseQuerier
}

// NewNotionSource creates a NotionSource authenticated with cfg.Token.
func NewNotionSource(cfg models.NotionConfig) *NotionSource {
	client := notionapi.NewClient(notionapi.Token(cfg.Token))
	return newNotionSource(cfg, client.Database)
}

func newNotionSource(cfg models.NotionConfig, q databaseQuerier) *NotionSource {
	return &NotionSource{cfg: cfg, queries: q}
}

// Name returns "notion:<database id>".
func (s *NotionSource) Name() string { return "notion:" + s.cfg.DatabaseID }

// FailureEvent names the audit event recorded when a query fails.
func (s *NotionSource) FailureEvent() string { return EventNotionAPIFailure }

// FetchAuditable queries the database and maps each page to a task
// completion.
func (s *NotionSource) FetchAuditable(ctx context.Context) ([]models.TaskCompletion, error) {
	if s.cfg.RequestTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.RequestTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	resp, err := s.queries.Query(ctx, notionapi.DatabaseID(s.cfg.DatabaseID), s.queryRequest())
	if err != nil {
		return nil, fmt.Errorf("querying notion database: %w", err)
	}

	tasks := make([]models.TaskCompletion, 0, len(resp.Results))
	for _, page := range resp.Results {
		tasks = append(tasks, s.pageToTask(page))
	}
	return tasks, nil
}

func (s *NotionSource) queryRequest() *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: s.cfg.StatusProperty,
			Status:   &notionapi.StatusFilterCondition{Equals: s.cfg.AuditableStatus},
		},
		Sorts: []notionapi.SortObject{
			{Property: s.cfg.SortProperty, Direction: notionapi.SortOrderDESC},
		},
		PageSize: s.cfg.PageSize,
	}
}

// pageToTask maps the configured properties of page. The title falls back
// to the page id and missing numbers read as zero.
func (s *NotionSource) pageToTask(page notionapi.Page) models.TaskCompletion {
	id := page.ID.String()
	if title, ok := page.Properties[s.cfg.TitleProperty].(*notionapi.TitleProperty); ok && len(title.Title) > 0 && title.Title[0].PlainText != "" {
		id = title.Title[0].PlainText
	}
	return models.TaskCompletion{
		TaskID:                id,
		TimeSpentHours:        numberProperty(page.Properties, s.cfg.HoursProperty),
		ValueGenerated:        numberProperty(page.Properties, s.cfg.ValueProperty),
		RegistrationLatencyMs: numberProperty(page.Properties, s.cfg.LatencyProperty),
	}
}

func numberProperty(props notionapi.Properties, name string) float64 {
	if p, ok := props[name].(*notionapi.NumberProperty); ok {
		return p.Number
	}
	return 0
}
