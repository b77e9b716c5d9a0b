package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"employee-directory/internal/metrics"
	"employee-directory/internal/models"
	"employee-directory/internal/password"
	"employee-directory/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmployeeService is a mock implementation of services.EmployeeService
type MockEmployeeService struct {
	mock.Mock
}

var _ services.EmployeeService = (*MockEmployeeService)(nil)

func (m *MockEmployeeService) Create(ctx context.Context, req models.CreateEmployeeRequest) (models.EmployeeResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) CreateBatch(ctx context.Context, reqs []models.CreateEmployeeRequest) ([]models.EmployeeResponse, error) {
	args := m.Called(ctx, reqs)
	return args.Get(0).([]models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) BulkImportCSV(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) BulkImportXLSX(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) GetByID(ctx context.Context, id int64) (models.EmployeeResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeResponse, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) Update(ctx context.Context, id int64, req models.UpdateEmployeeRequest) (models.EmployeeResponse, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(models.EmployeeResponse), args.Error(1)
}

func (m *MockEmployeeService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEmployeeService) MigratePasswords(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockAuthService is a mock implementation of services.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) models.LoginResponse {
	return m.Called(ctx, email, password).Get(0).(models.LoginResponse)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// Helper to setup test router
func setupTestRouter() (*gin.Engine, *MockEmployeeService, *metrics.Metrics) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := new(MockEmployeeService)
	m := metrics.New("test")
	h := NewEmployeeHandler(svc, m, 1<<20, logger)

	r := gin.New()
	r.POST("/api/employees/add", h.CreateEmployee)
	r.POST("/api/employees/add-Multiple", h.CreateEmployees)
	r.POST("/api/employees/bulk-upload", h.BulkUpload)
	r.GET("/api/employees/search", h.SearchEmployees)
	r.GET("/api/employees/:id", h.GetEmployee)
	r.PUT("/api/employees/update/:id", h.UpdateEmployee)
	r.DELETE("/api/employees/delete/:id", h.DeleteEmployee)
	r.POST("/migrate-passwords", h.MigratePasswords)
	return r, svc, m
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func validCreateBody() map[string]any {
	return map[string]any{
		"name":     "Ann Lee",
		"email":    "ann@corp.io",
		"password": "secret",
		"role":     "HR",
	}
}

func TestCreateEmployee_Created(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Create", mock.Anything, mock.MatchedBy(func(req models.CreateEmployeeRequest) bool {
		return req.Email == "ann@corp.io" && req.Password == "secret"
	})).Return(models.EmployeeResponse{ID: 1, Name: "Ann Lee", Email: "ann@corp.io", Role: "HR"}, nil)

	w := perform(r, http.MethodPost, "/api/employees/add", validCreateBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decode(t, w)
	assert.Equal(t, 201, resp.Code)
	assert.Equal(t, "Employee created successfully", resp.Message)
	assert.NotContains(t, w.Body.String(), "password")
	svc.AssertExpectations(t)
}

func TestCreateEmployee_ValidationFailed(t *testing.T) {
	r, svc, _ := setupTestRouter()

	body := validCreateBody()
	body["name"] = "   "
	body["email"] = "not-an-email"
	delete(body, "password")

	w := perform(r, http.MethodPost, "/api/employees/add", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Equal(t, map[string]any{
		"name":     "Name is required",
		"email":    "Invalid email format",
		"password": "Password is required",
	}, resp.Data)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateEmployee_PasswordTooLong(t *testing.T) {
	r, svc, _ := setupTestRouter()

	body := validCreateBody()
	body["password"] = strings.Repeat("x", 73)

	w := perform(r, http.MethodPost, "/api/employees/add", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Equal(t, map[string]any{"password": "Password must be at most 72 bytes"}, resp.Data)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateEmployee_PasswordTooLongFromService(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Create", mock.Anything, mock.Anything).
		Return(models.EmployeeResponse{}, fmt.Errorf("hash password: %w", password.ErrTooLong))

	w := perform(r, http.MethodPost, "/api/employees/add", validCreateBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password must be at most 72 bytes", decode(t, w).Message)
}

func TestCreateEmployee_MalformedJSON(t *testing.T) {
	r, _, _ := setupTestRouter()

	w := perform(r, http.MethodPost, "/api/employees/add", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Malformed request body", decode(t, w).Message)
}

func TestCreateEmployee_Duplicate(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Create", mock.Anything, mock.Anything).
		Return(models.EmployeeResponse{}, errDuplicate("ann@corp.io"))

	w := perform(r, http.MethodPost, "/api/employees/add", validCreateBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":400,"message":"Employee with email ann@corp.io already exists","data":null}`, w.Body.String())
}

// errDuplicate mimics the service error without reaching into its internals.
func errDuplicate(email string) error {
	return &wrapped{msg: "Employee with email " + email + " already exists", kind: services.ErrDuplicateEmail}
}

type wrapped struct {
	msg  string
	kind error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }

func TestCreateEmployees_Batch(t *testing.T) {
	r, svc, m := setupTestRouter()

	svc.On("CreateBatch", mock.Anything, mock.MatchedBy(func(reqs []models.CreateEmployeeRequest) bool {
		return len(reqs) == 2
	})).Return([]models.EmployeeResponse{{ID: 1}}, nil)

	second := validCreateBody()
	second["email"] = "bob@corp.io"
	w := perform(r, http.MethodPost, "/api/employees/add-Multiple", []any{validCreateBody(), second})
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Employees created successfully", resp.Message)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportedRows.WithLabelValues("batch")))
}

func TestCreateEmployees_ElementValidation(t *testing.T) {
	r, svc, _ := setupTestRouter()

	bad := validCreateBody()
	bad["role"] = ""
	w := perform(r, http.MethodPost, "/api/employees/add-Multiple", []any{validCreateBody(), bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Equal(t, map[string]any{"[1].role": "Role is required"}, resp.Data)
	svc.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/employees/bulk-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBulkUpload_CSV(t *testing.T) {
	r, svc, m := setupTestRouter()

	svc.On("BulkImportCSV", mock.Anything, mock.Anything).
		Return([]models.EmployeeResponse{{ID: 1}, {ID: 2}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "staff.csv", "name,email,department,phone,password,role\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "Upload employees via CSV", resp.Message)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportedRows.WithLabelValues("csv")))
	svc.AssertNotCalled(t, "BulkImportXLSX", mock.Anything, mock.Anything)
}

func TestBulkUpload_XLSXByExtension(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("BulkImportXLSX", mock.Anything, mock.Anything).Return([]models.EmployeeResponse{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "Staff.XLSX", "binary"))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestBulkUpload_ParseError(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("BulkImportCSV", mock.Anything, mock.Anything).
		Return([]models.EmployeeResponse(nil), &wrapped{msg: "failed to parse CSV: bad quote", kind: services.ErrCSVFormat})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "staff.csv", "\"broken"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CSV upload failed: failed to parse CSV: bad quote", decode(t, w).Message)
}

func TestBulkUpload_MissingFile(t *testing.T) {
	r, _, _ := setupTestRouter()

	w := perform(r, http.MethodPost, "/api/employees/bulk-upload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w).Message, "CSV upload failed: "))
}

func TestGetEmployee(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("GetByID", mock.Anything, int64(7)).
		Return(models.EmployeeResponse{ID: 7, Name: "Ann", Email: "ann@corp.io"}, nil)
	svc.On("GetByID", mock.Anything, int64(8)).
		Return(models.EmployeeResponse{}, &wrapped{msg: "Employee not found with ID: 8", kind: services.ErrEmployeeNotFound})

	w := perform(r, http.MethodGet, "/api/employees/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var emp models.EmployeeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &emp))
	assert.Equal(t, int64(7), emp.ID)

	w = perform(r, http.MethodGet, "/api/employees/8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"Employee not found with ID: 8","data":null}`, w.Body.String())

	w = perform(r, http.MethodGet, "/api/employees/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEmployees_BareArray(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Search", mock.Anything, models.EmployeeFilter{Name: "ann", Department: "IT"}).
		Return([]models.EmployeeResponse{}, nil)

	w := perform(r, http.MethodGet, "/api/employees/search?name=ann&department=IT", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdateEmployee(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Update", mock.Anything, int64(3), mock.MatchedBy(func(req models.UpdateEmployeeRequest) bool {
		return req.Password == "" && req.Email == "ann@corp.io"
	})).Return(models.EmployeeResponse{ID: 3}, nil)

	body := validCreateBody()
	delete(body, "password")
	w := perform(r, http.MethodPut, "/api/employees/update/3", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Update employee information", decode(t, w).Message)
}

func TestUpdateEmployee_PasswordTooLong(t *testing.T) {
	r, svc, _ := setupTestRouter()

	body := validCreateBody()
	body["password"] = strings.Repeat("é", 40)

	w := perform(r, http.MethodPut, "/api/employees/update/3", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"password": "Password must be at most 72 bytes"}, decode(t, w).Data)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateEmployee_UnexpectedError(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Update", mock.Anything, int64(3), mock.Anything).
		Return(models.EmployeeResponse{}, errors.New("connection refused"))

	w := perform(r, http.MethodPut, "/api/employees/update/3", validCreateBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"Internal server error","data":null}`, w.Body.String())
}

func TestDeleteEmployee(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("Delete", mock.Anything, int64(5)).Return(nil)

	w := perform(r, http.MethodDelete, "/api/employees/delete/5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"message":"Employee deleted successfully with id 5","data":null}`, w.Body.String())
}

func TestMigratePasswords(t *testing.T) {
	r, svc, _ := setupTestRouter()

	svc.On("MigratePasswords", mock.Anything).Return(3, nil)

	w := perform(r, http.MethodPost, "/migrate-passwords", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(3), resp.Data)
}

func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(MockAuthService)
	h := NewAuthHandler(svc, logrus.New())
	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	svc.On("Login", mock.Anything, "ann@corp.io", "pw").
		Return(models.LoginResponse{Success: false, Message: "Login failed: invalid_grant"})

	w := perform(r, http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@corp.io", "password": "pw"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Login failed: invalid_grant"}`, w.Body.String())

	w = perform(r, http.MethodPost, "/api/auth/login", map[string]string{"email": "ann@corp.io"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", Health(fakePinger{}))
	r.GET("/down", Health(fakePinger{err: errors.New("dial tcp: refused")}))

	w := perform(r, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/down", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
