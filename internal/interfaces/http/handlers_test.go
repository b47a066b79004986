package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crmforge/approval-engine/internal/application/service"
	"github.com/crmforge/approval-engine/internal/domain/entity"
)

// mockEngine implements service.ApprovalEngine with overridable functions
type mockEngine struct {
	submitFunc        func(ctx context.Context, req service.SubmitRequest) (*service.InstanceView, error)
	decideFunc        func(ctx context.Context, req service.DecideRequest) (*service.WorkItemView, error)
	recallFunc        func(ctx context.Context, tenantID, actorID string, instanceID int64, comment string) error
	reassignFunc      func(ctx context.Context, req service.ReassignRequest) (*service.WorkItemView, error)
	getInstanceFunc   func(ctx context.Context, tenantID string, id int64) (*service.InstanceView, error)
	listInstancesFunc func(ctx context.Context, tenantID string, filter entity.InstanceFilter, limit int, cursor string) (*service.InstancePage, error)
	getWorkItemFunc   func(ctx context.Context, tenantID string, id int64) (*service.WorkItemView, error)
	listWorkItemsFunc func(ctx context.Context, tenantID, approverID string, pendingOnly bool, limit int, cursor string) (*service.WorkItemPage, error)
	getHistoryFunc    func(ctx context.Context, tenantID string, instanceID int64) ([]*service.HistoryView, error)
}

func (m *mockEngine) Submit(ctx context.Context, req service.SubmitRequest) (*service.InstanceView, error) {
	return m.submitFunc(ctx, req)
}

func (m *mockEngine) Decide(ctx context.Context, req service.DecideRequest) (*service.WorkItemView, error) {
	return m.decideFunc(ctx, req)
}

func (m *mockEngine) Recall(ctx context.Context, tenantID, actorID string, instanceID int64, comment string) error {
	return m.recallFunc(ctx, tenantID, actorID, instanceID, comment)
}

func (m *mockEngine) Reassign(ctx context.Context, req service.ReassignRequest) (*service.WorkItemView, error) {
	return m.reassignFunc(ctx, req)
}

func (m *mockEngine) GetInstance(ctx context.Context, tenantID string, id int64) (*service.InstanceView, error) {
	return m.getInstanceFunc(ctx, tenantID, id)
}

func (m *mockEngine) ListInstances(ctx context.Context, tenantID string, filter entity.InstanceFilter, limit int, cursor string) (*service.InstancePage, error) {
	return m.listInstancesFunc(ctx, tenantID, filter, limit, cursor)
}

func (m *mockEngine) GetWorkItem(ctx context.Context, tenantID string, id int64) (*service.WorkItemView, error) {
	return m.getWorkItemFunc(ctx, tenantID, id)
}

func (m *mockEngine) ListWorkItems(ctx context.Context, tenantID, approverID string, pendingOnly bool, limit int, cursor string) (*service.WorkItemPage, error) {
	return m.listWorkItemsFunc(ctx, tenantID, approverID, pendingOnly, limit, cursor)
}

func (m *mockEngine) GetHistory(ctx context.Context, tenantID string, instanceID int64) ([]*service.HistoryView, error) {
	return m.getHistoryFunc(ctx, tenantID, instanceID)
}

type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(engine *mockEngine) *Server {
	return NewServer(DefaultServerConfig(), engine, testLogger{})
}

func doRequest(srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

var callerHeaders = map[string]string{
	headerTenantID: "acme",
	headerActorID:  "user-1",
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	w := doRequest(srv, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestIdentityMiddleware_RequiresTenant(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	w := doRequest(srv, http.MethodGet, "/api/approvals/1", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmit(t *testing.T) {
	var got service.SubmitRequest
	engine := &mockEngine{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*service.InstanceView, error) {
			got = req
			view := &service.InstanceView{}
			view.ID = 7
			view.Status = entity.InstanceStatusPending
			return view, nil
		},
	}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodPost, "/api/approvals", SubmitRequest{
		TargetObjectType:    "Opportunity",
		TargetRecordID:      "opp-1",
		ProcessDefinitionID: 3,
		Comment:             "please review",
	}, callerHeaders)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if got.TenantID != "acme" || got.SubmitterID != "user-1" {
		t.Errorf("identity not forwarded: %+v", got)
	}
	if got.ProcessDefinitionID != 3 || got.TargetRecordID != "opp-1" {
		t.Errorf("body not forwarded: %+v", got)
	}
}

func TestSubmit_MissingActor(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	w := doRequest(srv, http.MethodPost, "/api/approvals", SubmitRequest{
		TargetObjectType:    "Opportunity",
		TargetRecordID:      "opp-1",
		ProcessDefinitionID: 3,
	}, map[string]string{headerTenantID: "acme"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmit_MissingBodyFields(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	w := doRequest(srv, http.MethodPost, "/api/approvals", map[string]string{"comment": "no target"}, callerHeaders)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{entity.ErrNotFound, http.StatusNotFound},
		{entity.ErrAlreadyPending, http.StatusConflict},
		{entity.ErrNotPending, http.StatusConflict},
		{entity.ErrConflict, http.StatusConflict},
		{entity.ErrInvalidProcess, http.StatusBadRequest},
		{entity.ErrInvalidCursor, http.StatusBadRequest},
		{entity.ErrInvalidAction, http.StatusBadRequest},
		{entity.ErrNotAssignedApprover, http.StatusForbidden},
		{entity.ErrNotSubmitter, http.StatusForbidden},
		{entity.ErrNotAuthorized, http.StatusForbidden},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		engine := &mockEngine{
			getInstanceFunc: func(ctx context.Context, tenantID string, id int64) (*service.InstanceView, error) {
				return nil, fmt.Errorf("wrapped: %w", tc.err)
			},
		}
		srv := newTestServer(engine)
		w := doRequest(srv, http.MethodGet, "/api/approvals/1", nil, callerHeaders)
		if w.Code != tc.want {
			t.Errorf("error %v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestDecide(t *testing.T) {
	var got service.DecideRequest
	engine := &mockEngine{
		decideFunc: func(ctx context.Context, req service.DecideRequest) (*service.WorkItemView, error) {
			got = req
			view := &service.WorkItemView{}
			view.ID = req.WorkItemID
			view.Status = entity.WorkItemStatusApproved
			return view, nil
		},
	}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodPost, "/api/work-items/42/decide", DecideRequest{
		Action:  entity.DecisionApprove,
		Comment: "lgtm",
	}, callerHeaders)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if got.WorkItemID != 42 || got.ActorID != "user-1" || got.Action != entity.DecisionApprove {
		t.Errorf("request not forwarded: %+v", got)
	}
}

func TestDecide_InvalidID(t *testing.T) {
	srv := newTestServer(&mockEngine{})
	w := doRequest(srv, http.MethodPost, "/api/work-items/abc/decide", DecideRequest{Action: "APPROVE"}, callerHeaders)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReassign_AdminHeader(t *testing.T) {
	var got service.ReassignRequest
	engine := &mockEngine{
		reassignFunc: func(ctx context.Context, req service.ReassignRequest) (*service.WorkItemView, error) {
			got = req
			return &service.WorkItemView{}, nil
		},
	}
	srv := newTestServer(engine)

	headers := map[string]string{
		headerTenantID:   "acme",
		headerActorID:    "admin-1",
		headerActorAdmin: "true",
	}
	w := doRequest(srv, http.MethodPost, "/api/work-items/5/reassign", ReassignRequest{
		NewApproverID: "approverB",
	}, headers)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !got.ActorIsAdmin {
		t.Error("admin flag not forwarded")
	}
	if got.NewApproverID != "approverB" {
		t.Errorf("new approver = %q", got.NewApproverID)
	}
}

func TestRecall_NoBody(t *testing.T) {
	called := false
	engine := &mockEngine{
		recallFunc: func(ctx context.Context, tenantID, actorID string, instanceID int64, comment string) error {
			called = true
			if tenantID != "acme" || actorID != "user-1" || instanceID != 9 {
				t.Errorf("recall args: %s %s %d", tenantID, actorID, instanceID)
			}
			return nil
		},
	}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodPost, "/api/approvals/9/recall", nil, callerHeaders)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if !called {
		t.Error("engine.Recall not called")
	}
}

func TestListWorkItems_PendingOnlyDefault(t *testing.T) {
	var gotPendingOnly bool
	var gotApprover string
	engine := &mockEngine{
		listWorkItemsFunc: func(ctx context.Context, tenantID, approverID string, pendingOnly bool, limit int, cursor string) (*service.WorkItemPage, error) {
			gotPendingOnly = pendingOnly
			gotApprover = approverID
			return &service.WorkItemPage{Items: []*service.WorkItemView{}}, nil
		},
	}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodGet, "/api/work-items", nil, callerHeaders)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !gotPendingOnly {
		t.Error("default listing should be pending-only")
	}
	if gotApprover != "user-1" {
		t.Errorf("approver = %q, want caller id", gotApprover)
	}

	doRequest(srv, http.MethodGet, "/api/work-items?all=true", nil, callerHeaders)
	if gotPendingOnly {
		t.Error("all=true should include decided items")
	}
}

func TestListInstances_ForwardsFilter(t *testing.T) {
	var gotFilter entity.InstanceFilter
	var gotLimit int
	var gotCursor string
	engine := &mockEngine{
		listInstancesFunc: func(ctx context.Context, tenantID string, filter entity.InstanceFilter, limit int, cursor string) (*service.InstancePage, error) {
			gotFilter, gotLimit, gotCursor = filter, limit, cursor
			return &service.InstancePage{Items: []*service.InstanceView{}}, nil
		},
	}
	srv := newTestServer(engine)

	w := doRequest(srv, http.MethodGet, "/api/approvals?status=PENDING&target_object_type=Opportunity&limit=5&cursor=abc", nil, callerHeaders)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilter.Status != entity.InstanceStatusPending || gotFilter.TargetObjectType != "Opportunity" {
		t.Errorf("filter = %+v", gotFilter)
	}
	if gotLimit != 5 || gotCursor != "abc" {
		t.Errorf("limit=%d cursor=%q", gotLimit, gotCursor)
	}
}
