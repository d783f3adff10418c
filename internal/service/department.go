package service

import (
	"strings"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/email"
	"github.com/civiport-dev/civiport/internal/errors"
)

type DepartmentService interface {
	Create(d domain.Department) (domain.Department, error)
	Get(id domain.DepartmentId) (domain.Department, error)
	List() ([]domain.Department, error)
	Update(d domain.Department) (domain.Department, error)
	Delete(id domain.DepartmentId) error
}

type DepartmentStorage interface {
	CreateDepartment(d domain.Department) (domain.DepartmentId, error)
	Department(id domain.DepartmentId) (domain.Department, error)
	Departments() ([]domain.Department, error)
	UpdateDepartment(d domain.Department) error
	DeleteDepartment(id domain.DepartmentId) error
}

type Departments struct {
	storage DepartmentStorage
}

func NewDepartments(storage DepartmentStorage) *Departments {
	return &Departments{storage: storage}
}

func (s *Departments) Create(d domain.Department) (domain.Department, error) {
	if err := s.normalize(&d); err != nil {
		return domain.Department{}, err
	}
	id, err := s.storage.CreateDepartment(d)
	if err != nil {
		return domain.Department{}, err
	}
	return s.storage.Department(id)
}

func (s *Departments) Get(id domain.DepartmentId) (domain.Department, error) {
	return s.storage.Department(id)
}

func (s *Departments) List() ([]domain.Department, error) {
	return s.storage.Departments()
}

func (s *Departments) Update(d domain.Department) (domain.Department, error) {
	if err := s.normalize(&d); err != nil {
		return domain.Department{}, err
	}
	if err := s.storage.UpdateDepartment(d); err != nil {
		return domain.Department{}, err
	}
	return s.storage.Department(d.Id)
}

func (s *Departments) Delete(id domain.DepartmentId) error {
	return s.storage.DeleteDepartment(id)
}

func (s *Departments) normalize(d *domain.Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errors.BadRequest("Department name is required")
	}
	if d.ContactEmail != "" {
		if err := email.IsCorrect(string(d.ContactEmail)); err != nil {
			return err
		}
		d.ContactEmail = domain.Email(strings.ToLower(string(d.ContactEmail)))
	}
	return nil
}
