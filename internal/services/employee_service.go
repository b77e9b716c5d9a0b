package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"employee-directory/internal/logging"
	"employee-directory/internal/models"
	"employee-directory/internal/password"
	"employee-directory/internal/repository"

	"github.com/sirupsen/logrus"
)

// EmployeeService holds the directory's business rules on top of the store.
type EmployeeService interface {
	Create(ctx context.Context, req models.CreateEmployeeRequest) (models.EmployeeResponse, error)
	CreateBatch(ctx context.Context, reqs []models.CreateEmployeeRequest) ([]models.EmployeeResponse, error)
	BulkImportCSV(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error)
	BulkImportXLSX(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error)
	GetByID(ctx context.Context, id int64) (models.EmployeeResponse, error)
	Search(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeResponse, error)
	Update(ctx context.Context, id int64, req models.UpdateEmployeeRequest) (models.EmployeeResponse, error)
	Delete(ctx context.Context, id int64) error
	MigratePasswords(ctx context.Context) (int, error)
}

type employeeService struct {
	repo   repository.EmployeeRepository
	hasher password.Hasher
	log    *logrus.Entry
}

func NewEmployeeService(repo repository.EmployeeRepository, hasher password.Hasher, logger *logrus.Logger) EmployeeService {
	return &employeeService{
		repo:   repo,
		hasher: hasher,
		log:    logger.WithField("component", "employee-service"),
	}
}

func (s *employeeService) logger(ctx context.Context, operation string) *logrus.Entry {
	return logging.FromContext(ctx, s.log).WithField("operation", operation)
}

func (s *employeeService) Create(ctx context.Context, req models.CreateEmployeeRequest) (models.EmployeeResponse, error) {
	log := s.logger(ctx, "create").WithField("email", req.Email)

	exists, err := s.emailTaken(ctx, req.Email)
	if err != nil {
		return models.EmployeeResponse{}, err
	}
	if exists {
		log.Warn("Employee email already exists")
		return models.EmployeeResponse{}, duplicateEmail(req.Email)
	}

	e, err := s.newEmployee(req.EmployeeFields, req.Password)
	if err != nil {
		return models.EmployeeResponse{}, err
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return models.EmployeeResponse{}, err
	}

	log.WithField("employee_id", e.ID).Info("Employee created")
	return e.ToResponse(), nil
}

// CreateBatch inserts every request whose email is free. Existing emails and
// repeats within the batch are skipped, not reported as errors.
func (s *employeeService) CreateBatch(ctx context.Context, reqs []models.CreateEmployeeRequest) ([]models.EmployeeResponse, error) {
	log := s.logger(ctx, "create-batch")

	staged := make([]*models.Employee, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		ok, err := s.admit(ctx, log, seen, req.Email)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		e, err := s.stage(log, req.EmployeeFields, req.Password)
		if err != nil {
			return nil, err
		}
		if e != nil {
			staged = append(staged, e)
		}
	}

	return s.insertStaged(ctx, log, staged, len(reqs))
}

func (s *employeeService) BulkImportCSV(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, badUpload(err)
	}
	return s.importRecords(ctx, s.logger(ctx, "bulk-upload-csv"), records)
}

func (s *employeeService) BulkImportXLSX(ctx context.Context, r io.Reader) ([]models.EmployeeResponse, error) {
	records, err := readXLSX(r)
	if err != nil {
		return nil, badUpload(err)
	}
	return s.importRecords(ctx, s.logger(ctx, "bulk-upload-xlsx"), records)
}

func (s *employeeService) importRecords(ctx context.Context, log *logrus.Entry, records [][]string) ([]models.EmployeeResponse, error) {
	staged := make([]*models.Employee, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		row, ok := parseRow(rec)
		if !ok {
			log.WithField("row", i).Warn("Skipping short row")
			continue
		}
		admitted, err := s.admit(ctx, log, seen, row.Email)
		if err != nil {
			return nil, err
		}
		if !admitted {
			continue
		}
		e, err := s.stage(log.WithField("row", i), row.EmployeeFields, row.Password)
		if err != nil {
			return nil, err
		}
		if e != nil {
			staged = append(staged, e)
		}
	}

	rows := len(records) - 1
	if rows < 0 {
		rows = 0
	}
	return s.insertStaged(ctx, log, staged, rows)
}

func (s *employeeService) GetByID(ctx context.Context, id int64) (models.EmployeeResponse, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return models.EmployeeResponse{}, err
	}
	return e.ToResponse(), nil
}

func (s *employeeService) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeResponse, error) {
	var (
		list []models.Employee
		err  error
	)
	if filter.IsBlank() {
		list, err = s.repo.FindAll(ctx)
	} else {
		list, err = s.repo.Search(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.EmployeeResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse())
	}
	return out, nil
}

func (s *employeeService) Update(ctx context.Context, id int64, req models.UpdateEmployeeRequest) (models.EmployeeResponse, error) {
	log := s.logger(ctx, "update").WithField("employee_id", id)

	current, err := s.find(ctx, id)
	if err != nil {
		return models.EmployeeResponse{}, err
	}

	if req.Email != current.Email {
		taken, err := s.emailTaken(ctx, req.Email)
		if err != nil {
			return models.EmployeeResponse{}, err
		}
		if taken {
			log.WithField("email", req.Email).Warn("Employee email already exists")
			return models.EmployeeResponse{}, duplicateEmail(req.Email)
		}
	}

	current.Name = req.Name
	current.Email = req.Email
	current.Phone = req.Phone
	current.Department = req.Department
	current.Role = req.Role

	if strings.TrimSpace(req.Password) != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return models.EmployeeResponse{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdateWithPassword(ctx, current, hashed); err != nil {
			return models.EmployeeResponse{}, s.mapNotFound(err, id)
		}
	} else if err := s.repo.Update(ctx, current); err != nil {
		return models.EmployeeResponse{}, s.mapNotFound(err, id)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return models.EmployeeResponse{}, err
	}
	log.Info("Employee updated")
	return updated.ToResponse(), nil
}

func (s *employeeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return s.mapNotFound(err, id)
	}
	s.logger(ctx, "delete").WithField("employee_id", id).Info("Employee deleted")
	return nil
}

// MigratePasswords rehashes every stored password that is not already a
// bcrypt hash and returns how many rows changed.
func (s *employeeService) MigratePasswords(ctx context.Context) (int, error) {
	log := s.logger(ctx, "migrate-passwords")

	list, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, e := range list {
		if password.IsHashed(e.Password) {
			continue
		}
		hashed, err := s.hasher.Hash(e.Password)
		if err != nil {
			return migrated, fmt.Errorf("hash password for employee %d: %w", e.ID, err)
		}
		if err := s.repo.UpdatePassword(ctx, e.ID, hashed); err != nil {
			return migrated, err
		}
		migrated++
	}

	log.WithField("count", migrated).Info("Password migration finished")
	return migrated, nil
}

func (s *employeeService) find(ctx context.Context, id int64) (*models.Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return e, nil
}

func (s *employeeService) mapNotFound(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(id)
	}
	return err
}

func (s *employeeService) emailTaken(ctx context.Context, email string) (bool, error) {
	n, err := s.repo.CountByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// admit reports whether email may be staged in the current batch.
func (s *employeeService) admit(ctx context.Context, log *logrus.Entry, seen map[string]struct{}, email string) (bool, error) {
	if _, dup := seen[email]; dup {
		log.WithField("email", email).Warn("Skipping email repeated in batch")
		return false, nil
	}
	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return false, err
	}
	if taken {
		log.WithField("email", email).Warn("Skipping existing email")
		return false, nil
	}
	seen[email] = struct{}{}
	return true, nil
}

// stage hashes a batch row. A password bcrypt cannot hash skips the row
// with a nil employee.
func (s *employeeService) stage(log *logrus.Entry, f models.EmployeeFields, plain string) (*models.Employee, error) {
	e, err := s.newEmployee(f, plain)
	if errors.Is(err, password.ErrTooLong) {
		log.WithField("email", f.Email).Warn("Skipping row with password over 72 bytes")
		return nil, nil
	}
	return e, err
}

func (s *employeeService) newEmployee(f models.EmployeeFields, plain string) (*models.Employee, error) {
	hashed, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.Employee{
		Name:       f.Name,
		Email:      f.Email,
		Password:   hashed,
		Phone:      f.Phone,
		Department: f.Department,
		Role:       f.Role,
	}, nil
}

func (s *employeeService) insertStaged(ctx context.Context, log *logrus.Entry, staged []*models.Employee, received int) ([]models.EmployeeResponse, error) {
	if err := s.repo.BatchInsert(ctx, staged); err != nil {
		return nil, err
	}

	out := make([]models.EmployeeResponse, 0, len(staged))
	for _, e := range staged {
		out = append(out, e.ToResponse())
	}
	log.WithFields(logrus.Fields{
		"received": received,
		"inserted": len(out),
	}).Info("Batch insert finished")
	return out, nil
}
