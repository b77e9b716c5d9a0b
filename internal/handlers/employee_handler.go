package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"employee-directory/internal/logging"
	"employee-directory/internal/metrics"
	"employee-directory/internal/models"
	"employee-directory/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type EmployeeHandler struct {
	service        services.EmployeeService
	metrics        *metrics.Metrics
	maxUploadBytes int64
	log            *logrus.Entry
}

func NewEmployeeHandler(service services.EmployeeService, m *metrics.Metrics, maxUploadBytes int64, logger *logrus.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service:        service,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
		log:            logger.WithField("component", "employee-handler"),
	}
}

func (h *EmployeeHandler) logger(c *gin.Context, operation string) *logrus.Entry {
	return logging.FromContext(c.Request.Context(), h.log).WithField("operation", operation)
}

// CreateEmployee godoc
// @Summary Create an employee
// @Tags employees
// @Accept json
// @Produce json
// @Param employee body models.CreateEmployeeRequest true "Employee"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/add [post]
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	log := h.logger(c, "create")

	var in models.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, log, err)
		return
	}

	log.WithField("email", in.Email).Info("Creating employee")
	emp, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, log.WithField("email", in.Email), err)
		return
	}
	c.JSON(http.StatusCreated, models.Created(emp, "Employee created successfully"))
}

// CreateEmployees godoc
// @Summary Create several employees
// @Description Existing emails are skipped. Only inserted employees are returned.
// @Tags employees
// @Accept json
// @Produce json
// @Param employees body []models.CreateEmployeeRequest true "Employees"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/add-Multiple [post]
func (h *EmployeeHandler) CreateEmployees(c *gin.Context) {
	log := h.logger(c, "create-batch")

	var in []models.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBatchBindError(c, log, err, in)
		return
	}

	log.WithField("count", len(in)).Info("Creating employees")
	created, err := h.service.CreateBatch(c.Request.Context(), in)
	if err != nil {
		respondError(c, log, err)
		return
	}
	h.countImported("batch", len(created))
	c.JSON(http.StatusCreated, models.Created(created, "Employees created successfully"))
}

// BulkUpload godoc
// @Summary Import employees from a file
// @Description CSV (or .xlsx) with a header row and columns name,email,department,phone,password,role.
// @Tags employees
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Employee file"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/bulk-upload [post]
func (h *EmployeeHandler) BulkUpload(c *gin.Context) {
	log := h.logger(c, "bulk-upload")

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		log.WithError(err).Warn("Missing upload file")
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, "CSV upload failed: "+err.Error()))
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, "CSV upload failed: "+err.Error()))
		return
	}
	defer file.Close()

	source := "csv"
	importFile := h.service.BulkImportCSV
	if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		source = "xlsx"
		importFile = h.service.BulkImportXLSX
	}

	log = log.WithFields(logrus.Fields{"file": header.Filename, "size": header.Size})
	log.Info("Importing employees from file")
	created, err := importFile(c.Request.Context(), file)
	if err != nil {
		respondError(c, log, err)
		return
	}
	h.countImported(source, len(created))
	c.JSON(http.StatusOK, models.Success(created, "Upload employees via CSV"))
}

// GetEmployee godoc
// @Summary Get an employee
// @Tags employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} models.EmployeeResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/{id} [get]
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	log := h.logger(c, "get")

	id, ok := h.parseID(c, log)
	if !ok {
		return
	}
	emp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, log.WithField("employee_id", id), err)
		return
	}
	c.JSON(http.StatusOK, emp)
}

// SearchEmployees godoc
// @Summary Search employees
// @Description Case-insensitive substring match on every supplied filter, newest first.
// @Tags employees
// @Produce json
// @Param name query string false "Name"
// @Param email query string false "Email"
// @Param department query string false "Department"
// @Param role query string false "Role"
// @Success 200 {array} models.EmployeeResponse
// @Security BearerAuth
// @Router /api/employees/search [get]
func (h *EmployeeHandler) SearchEmployees(c *gin.Context) {
	log := h.logger(c, "search")

	var filter models.EmployeeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, log, err)
		return
	}

	list, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateEmployee godoc
// @Summary Update an employee
// @Description A blank password keeps the current one.
// @Tags employees
// @Accept json
// @Produce json
// @Param id path int true "Employee ID"
// @Param employee body models.UpdateEmployeeRequest true "Employee"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/update/{id} [put]
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	log := h.logger(c, "update")

	id, ok := h.parseID(c, log)
	if !ok {
		return
	}
	log = log.WithField("employee_id", id)

	var in models.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, log, err)
		return
	}

	emp, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, models.Success(emp, "Update employee information"))
}

// DeleteEmployee godoc
// @Summary Delete an employee
// @Tags employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/employees/delete/{id} [delete]
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	log := h.logger(c, "delete")

	id, ok := h.parseID(c, log)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, log.WithField("employee_id", id), err)
		return
	}
	c.JSON(http.StatusOK, models.Success(nil, fmt.Sprintf("Employee deleted successfully with id %d", id)))
}

// MigratePasswords godoc
// @Summary Hash stored plaintext passwords
// @Tags maintenance
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /migrate-passwords [post]
func (h *EmployeeHandler) MigratePasswords(c *gin.Context) {
	log := h.logger(c, "migrate-passwords")

	n, err := h.service.MigratePasswords(c.Request.Context())
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, models.Success(n, fmt.Sprintf("Migrated %d passwords", n)))
}

func (h *EmployeeHandler) parseID(c *gin.Context, log *logrus.Entry) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		log.WithField("id", c.Param("id")).Warn("Invalid employee id")
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, "Invalid employee id: "+c.Param("id")))
		return 0, false
	}
	return id, true
}

func (h *EmployeeHandler) countImported(source string, n int) {
	if h.metrics != nil {
		h.metrics.ImportedRows.WithLabelValues(source).Add(float64(n))
	}
}
