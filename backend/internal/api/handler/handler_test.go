package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/api/middleware"
	"sched-master/backend/internal/dto"
	"sched-master/backend/internal/schedule"
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock WorkspaceService ──

type mockWorkspaceService struct {
	state      *dto.WorkspaceResponse
	importResp *dto.ImportResponse
	err        error

	gotKind  schedule.Kind
	gotIndex int
	gotText  string
}

func (m *mockWorkspaceService) Load(_ context.Context) error { return nil }
func (m *mockWorkspaceService) State(_ context.Context) *dto.WorkspaceResponse {
	return m.state
}
func (m *mockWorkspaceService) Paste(_ context.Context, kind schedule.Kind, text string) (*dto.ImportResponse, error) {
	m.gotKind, m.gotText = kind, text
	return m.importResp, m.err
}
func (m *mockWorkspaceService) ImportWorkbook(_ context.Context, kind schedule.Kind, r io.Reader) (*dto.ImportResponse, error) {
	m.gotKind = kind
	b, _ := io.ReadAll(r)
	m.gotText = string(b)
	return m.importResp, m.err
}
func (m *mockWorkspaceService) UpdateRecord(_ context.Context, kind schedule.Kind, index int, _ *dto.UpdateRecordRequest) (*dto.WorkspaceResponse, error) {
	m.gotKind, m.gotIndex = kind, index
	return m.state, m.err
}
func (m *mockWorkspaceService) DeleteRecord(_ context.Context, kind schedule.Kind, index int) (*dto.WorkspaceResponse, error) {
	m.gotKind, m.gotIndex = kind, index
	return m.state, m.err
}
func (m *mockWorkspaceService) Clear(_ context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	m.gotKind = kind
	return m.state, m.err
}
func (m *mockWorkspaceService) Undo(_ context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	m.gotKind = kind
	return m.state, m.err
}
func (m *mockWorkspaceService) Redo(_ context.Context, kind schedule.Kind) (*dto.WorkspaceResponse, error) {
	m.gotKind = kind
	return m.state, m.err
}
func (m *mockWorkspaceService) Records(_ schedule.Kind) []schedule.Record { return nil }

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
	gotReq   *dto.ExportRequest
}

func (m *mockExportService) ExportDataset(_ context.Context, _ schedule.Kind, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	m.gotReq = req
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportRestCalendar(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock MonitoringService ──

type mockMonitoringService struct {
	branches  []dto.BranchResponse
	branch    *dto.BranchResponse
	progress  *dto.ProgressResponse
	entries   *dto.PeriodEntriesResponse
	periods   []string
	buf       *bytes.Buffer
	filename  string
	err       error
	gotCaller string
}

func (m *mockMonitoringService) ListBranches(_ context.Context) ([]dto.BranchResponse, error) {
	return m.branches, m.err
}
func (m *mockMonitoringService) CreateBranch(_ context.Context, _ *dto.CreateBranchRequest, caller string) (*dto.BranchResponse, error) {
	m.gotCaller = caller
	return m.branch, m.err
}
func (m *mockMonitoringService) UpdateBranch(_ context.Context, _ string, _ *dto.UpdateBranchRequest, caller string) (*dto.BranchResponse, error) {
	m.gotCaller = caller
	return m.branch, m.err
}
func (m *mockMonitoringService) DeleteBranch(_ context.Context, _ string) error { return m.err }
func (m *mockMonitoringService) Progress(_ context.Context) (*dto.ProgressResponse, error) {
	return m.progress, m.err
}
func (m *mockMonitoringService) ArchivePeriod(_ context.Context, _ string, caller string) (*dto.PeriodEntriesResponse, error) {
	m.gotCaller = caller
	return m.entries, m.err
}
func (m *mockMonitoringService) ListPeriods(_ context.Context) ([]string, error) {
	return m.periods, m.err
}
func (m *mockMonitoringService) GetPeriodEntries(_ context.Context, _ string) (*dto.PeriodEntriesResponse, error) {
	return m.entries, m.err
}
func (m *mockMonitoringService) ExportReport(_ context.Context, _ *dto.ReportRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock Pinger ──

type mockPinger struct{ err error }

func (m mockPinger) Ping(_ context.Context) error { return m.err }

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func workspaceRouter(h *WorkspaceHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/schedules")
	g.GET("", h.GetWorkspace)
	g.POST("/:kind/paste", h.Paste)
	g.POST("/:kind/import", h.ImportWorkbook)
	g.PUT("/:kind/records/:index", h.UpdateRecord)
	g.DELETE("/:kind/records/:index", h.DeleteRecord)
	g.DELETE("/:kind", h.Clear)
	g.POST("/:kind/undo", h.Undo)
	g.POST("/:kind/redo", h.Redo)
	return r
}

func monitoringRouter(h *MonitoringHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Caller())
	g := r.Group("/monitoring")
	g.GET("/branches", h.ListBranches)
	g.POST("/branches", h.CreateBranch)
	g.PUT("/branches/:id", h.UpdateBranch)
	g.DELETE("/branches/:id", h.DeleteBranch)
	g.GET("/progress", h.GetProgress)
	g.GET("/periods", h.ListPeriods)
	g.POST("/periods/:period/entries", h.ArchivePeriod)
	g.GET("/periods/:period/entries", h.GetPeriodEntries)
	g.GET("/reports", h.ExportReport)
	return r
}

// ═══════════════════════════════════════════════════════════
// WorkspaceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWorkspaceHandler_Paste_Success(t *testing.T) {
	mock := &mockWorkspaceService{importResp: &dto.ImportResponse{Kind: schedule.KindRest, Imported: 1}}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/rest/paste", jsonBody(dto.PasteRequest{Text: "EMP1 John 01/05/2025"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotKind != schedule.KindRest || mock.gotText != "EMP1 John 01/05/2025" {
		t.Errorf("service called with %q / %q", mock.gotKind, mock.gotText)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestWorkspaceHandler_Paste_InvalidKind(t *testing.T) {
	mock := &mockWorkspaceService{}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/swap/paste", jsonBody(dto.PasteRequest{Text: "x"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

func TestWorkspaceHandler_Paste_MissingText(t *testing.T) {
	mock := &mockWorkspaceService{}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/work/paste", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWorkspaceHandler_ImportWorkbook(t *testing.T) {
	mock := &mockWorkspaceService{importResp: &dto.ImportResponse{Kind: schedule.KindWork}}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "ws.xlsx")
	_, _ = part.Write([]byte("workbook-bytes"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/work/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotText != "workbook-bytes" {
		t.Errorf("expected uploaded bytes to reach service, got %q", mock.gotText)
	}
}

func TestWorkspaceHandler_ImportWorkbook_WrongExtension(t *testing.T) {
	mock := &mockWorkspaceService{}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "ws.csv")
	_, _ = part.Write([]byte("a,b"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/work/import", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 12006 {
		t.Errorf("expected 400/12006, got %d/%d", w.Code, resp.Code)
	}
}

func TestWorkspaceHandler_UpdateRecord_BadIndex(t *testing.T) {
	mock := &mockWorkspaceService{}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/schedules/work/records/abc", jsonBody(map[string]string{"name": "x"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWorkspaceHandler_DeleteRecord_PassesIndex(t *testing.T) {
	mock := &mockWorkspaceService{state: &dto.WorkspaceResponse{}}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/schedules/rest/records/3", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotKind != schedule.KindRest || mock.gotIndex != 3 {
		t.Errorf("service called with %q / %d", mock.gotKind, mock.gotIndex)
	}
}

func TestWorkspaceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		method     string
		path       string
		wantStatus int
		wantCode   int
	}{
		{"index out of range", service.ErrRecordIndexOutOfRange, "DELETE", "/schedules/work/records/9", http.StatusNotFound, 12002},
		{"nothing to undo", service.ErrNothingToUndo, "POST", "/schedules/work/undo", http.StatusConflict, 12003},
		{"nothing to redo", service.ErrNothingToRedo, "POST", "/schedules/rest/redo", http.StatusConflict, 12004},
		{"internal", errors.New("boom"), "DELETE", "/schedules/work", http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockWorkspaceService{err: tt.err}
			r := workspaceRouter(NewWorkspaceHandler(mock))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected error code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestWorkspaceHandler_PasteTooLarge(t *testing.T) {
	mock := &mockWorkspaceService{err: service.ErrPasteTooLarge}
	r := workspaceRouter(NewWorkspaceHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/work/paste", jsonBody(dto.PasteRequest{Text: "x"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportDataset_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("excel content"), filename: "Makati_WS_Jan2025.xlsx"}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/schedules/:kind/export", h.ExportDataset)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schedules/work/export?branch=Makati&month=1&year=2025", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != response.MIMEXlsx {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''Makati_WS_Jan2025.xlsx" {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}
	if mock.gotReq.Branch != "Makati" || mock.gotReq.Month != 1 || mock.gotReq.Year != 2025 {
		t.Errorf("query not bound: %+v", mock.gotReq)
	}
}

func TestExportHandler_ExportDataset_InvalidMonth(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	r := gin.New()
	r.GET("/schedules/:kind/export", h.ExportDataset)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schedules/work/export?month=13", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_NoData(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoData})

	r := gin.New()
	r.GET("/schedules/rest/calendar", h.ExportRestCalendar)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schedules/rest/calendar", nil))

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 16101 {
		t.Errorf("expected 400/16101, got %d/%d", w.Code, resp.Code)
	}
}

func TestExportHandler_RestCalendar(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "UnnamedBranch_RD.ics"})

	r := gin.New()
	r.GET("/schedules/rest/calendar", h.ExportRestCalendar)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schedules/rest/calendar", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != response.MIMECalendar {
		t.Errorf("unexpected content type: %s", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// MonitoringHandler Tests
// ═══════════════════════════════════════════════════════════

func TestMonitoringHandler_ListBranches(t *testing.T) {
	mock := &mockMonitoringService{branches: []dto.BranchResponse{{ID: "b-1", PosCode: "1001"}}}
	r := monitoringRouter(NewMonitoringHandler(mock))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/monitoring/branches", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data struct {
			List []dto.BranchResponse `json:"list"`
		} `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.List) != 1 || body.Data.List[0].PosCode != "1001" {
		t.Errorf("unexpected list: %+v", body.Data.List)
	}
}

func TestMonitoringHandler_CreateBranch_EmptyBodyUsesCaller(t *testing.T) {
	mock := &mockMonitoringService{branch: &dto.BranchResponse{ID: "b-1", Version: 1}}
	r := monitoringRouter(NewMonitoringHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/monitoring/branches", nil)
	req.Header.Set("X-User-Email", "ana@example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if mock.gotCaller != "ana@example.com" {
		t.Errorf("expected caller from header, got %q", mock.gotCaller)
	}
}

func TestMonitoringHandler_UpdateBranch_RequiresVersion(t *testing.T) {
	mock := &mockMonitoringService{}
	r := monitoringRouter(NewMonitoringHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/monitoring/branches/b-1", jsonBody(map[string]bool{"is_uploaded": true}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMonitoringHandler_UpdateBranch_DefaultCaller(t *testing.T) {
	mock := &mockMonitoringService{branch: &dto.BranchResponse{ID: "b-1", Version: 2}}
	r := monitoringRouter(NewMonitoringHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/monitoring/branches/b-1", jsonBody(map[string]interface{}{"is_uploaded": true, "version": 1}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotCaller != "User" {
		t.Errorf("expected default caller User, got %q", mock.gotCaller)
	}
}

func TestMonitoringHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		method     string
		path       string
		wantStatus int
		wantCode   int
	}{
		{"branch not found", service.ErrBranchNotFound, "DELETE", "/monitoring/branches/x", http.StatusNotFound, 18001},
		{"invalid period", service.ErrInvalidPeriod, "POST", "/monitoring/periods/2025-1/entries", http.StatusBadRequest, 18003},
		{"period missing", service.ErrProgressNotFound, "GET", "/monitoring/periods/2025-01/entries", http.StatusNotFound, 18004},
		{"report no data", service.ErrExportNoData, "GET", "/monitoring/reports?month=1&year=2025", http.StatusBadRequest, 16101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMonitoringService{err: tt.err}
			r := monitoringRouter(NewMonitoringHandler(mock))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected error code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestMonitoringHandler_VersionConflict(t *testing.T) {
	mock := &mockMonitoringService{err: service.ErrBranchVersionConflict}
	r := monitoringRouter(NewMonitoringHandler(mock))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/monitoring/branches/b-1", jsonBody(map[string]interface{}{"branch_name": "X", "version": 1}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if resp := parseResponse(w); w.Code != http.StatusConflict || resp.Code != 18002 {
		t.Errorf("expected 409/18002, got %d/%d", w.Code, resp.Code)
	}
}

func TestMonitoringHandler_ExportReport_RequiresMonth(t *testing.T) {
	r := monitoringRouter(NewMonitoringHandler(&mockMonitoringService{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/monitoring/reports?year=2025", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HealthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		monitoring bool
		wantRedis  string
		wantMon    string
	}{
		{"no backends", nil, false, "disabled", "disabled"},
		{"redis ok", mockPinger{}, true, "ok", "enabled"},
		{"redis down", mockPinger{err: errors.New("down")}, false, "unavailable", "disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pinger, tt.monitoring)
			r := gin.New()
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var body struct {
				Data dto.HealthResponse `json:"data"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Data.Redis != tt.wantRedis || body.Data.Monitoring != tt.wantMon {
				t.Errorf("unexpected health: %+v", body.Data)
			}
		})
	}
}
