package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/valter-silva-au/aion-audit/internal/core"
	"github.com/valter-silva-au/aion-audit/pkg/models"
)

type fakeQuerier struct {
	gotID  notionapi.DatabaseID
	gotReq *notionapi.DatabaseQueryRequest
	resp   *notionapi.DatabaseQueryResponse
	err    error
}

func (f *fakeQuerier) Query(_ context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	f.gotID = id
	f.gotReq = req
	return f.resp, f.err
}

func testNotionConfig() models.NotionConfig {
	cfg := core.DefaultConfig().Notion
	cfg.Token = "secret"
	cfg.DatabaseID = "db-1"
	return cfg
}

func notionPage(id, title string, value, hours, latency float64) notionapi.Page {
	props := notionapi.Properties{
		"Valor (USD)":   &notionapi.NumberProperty{Number: value},
		"Horas":         &notionapi.NumberProperty{Number: hours},
		"Latencia (ms)": &notionapi.NumberProperty{Number: latency},
	}
	if title != "" {
		props["Tarea"] = &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: title}}}
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

func TestNotionSource_QueryRequest(t *testing.T) {
	q := &fakeQuerier{resp: &notionapi.DatabaseQueryResponse{}}
	if _, err := newNotionSource(testNotionConfig(), q).FetchAuditable(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.gotID != "db-1" {
		t.Errorf("database id = %q", q.gotID)
	}
	filter, ok := q.gotReq.Filter.(notionapi.PropertyFilter)
	if !ok {
		t.Fatalf("filter type = %T", q.gotReq.Filter)
	}
	if filter.Property != "Estado" || filter.Status == nil || filter.Status.Equals != "Auditable" {
		t.Errorf("unexpected filter %+v", filter)
	}
	if len(q.gotReq.Sorts) != 1 || q.gotReq.Sorts[0].Property != "Última Edición" || q.gotReq.Sorts[0].Direction != notionapi.SortOrderDESC {
		t.Errorf("unexpected sorts %+v", q.gotReq.Sorts)
	}
	if q.gotReq.PageSize != 10 {
		t.Errorf("page size = %d, want 10", q.gotReq.PageSize)
	}
}

func TestNotionSource_MapsPages(t *testing.T) {
	q := &fakeQuerier{resp: &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{
		notionPage("page-1", "Write report", 120, 3, 2500),
		notionPage("page-2", "", 40, 1, 0),
		{ID: "page-3", Properties: notionapi.Properties{}},
	}}}

	tasks, err := newNotionSource(testNotionConfig(), q).FetchAuditable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.TaskCompletion{
		{TaskID: "Write report", TimeSpentHours: 3, ValueGenerated: 120, RegistrationLatencyMs: 2500},
		{TaskID: "page-2", TimeSpentHours: 1, ValueGenerated: 40},
		{TaskID: "page-3"},
	}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], want[i])
		}
	}
}

func TestNotionSource_CustomPropertyNames(t *testing.T) {
	cfg := testNotionConfig()
	cfg.TitleProperty = "Name"
	cfg.HoursProperty = "Hours"
	q := &fakeQuerier{resp: &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{
		ID: "page-1",
		Properties: notionapi.Properties{
			"Name":  &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "Ship it"}}},
			"Hours": &notionapi.NumberProperty{Number: 4},
		},
	}}}}

	tasks, err := newNotionSource(cfg, q).FetchAuditable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].TaskID != "Ship it" || tasks[0].TimeSpentHours != 4 {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestNotionSource_QueryFailure(t *testing.T) {
	q := &fakeQuerier{err: errors.New("401 unauthorized")}
	_, err := newNotionSource(testNotionConfig(), q).FetchAuditable(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401 unauthorized") {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestConnector_NotionFailureIsRecordedAsAPIFailure(t *testing.T) {
	errs := &errorRecorder{}
	src := newNotionSource(testNotionConfig(), &fakeQuerier{err: errors.New("502 bad gateway")})

	n := NewConnector(src, core.NewWorkState(quietLogger()), errs, quietLogger()).AuditAndNotify(context.Background())
	if n != 0 {
		t.Errorf("processed = %d, want 0", n)
	}
	if len(errs.errs) != 1 || errs.errs[0].name != EventNotionAPIFailure {
		t.Fatalf("expected one %s, got %+v", EventNotionAPIFailure, errs.errs)
	}
	if !strings.Contains(errs.errs[0].cause.Error(), "502 bad gateway") {
		t.Errorf("unexpected cause %v", errs.errs[0].cause)
	}
}
