// internal/services/company_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetrack/wastetrack-backend/internal/models"
	"github.com/wastetrack/wastetrack-backend/internal/utils"
)

type CompanyService struct {
	db *gorm.DB
}

type CreateCompanyRequest struct {
	Siret        string `json:"siret" validate:"required,siret"`
	Name         string `json:"name" validate:"required,min=2,max=255"`
	Address      string `json:"address,omitempty"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty" validate:"max=20"`
}

type UpdateCompanyRequest struct {
	Name         string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Address      string `json:"address,omitempty"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty" validate:"max=20"`
}

type CompanySearchParams struct {
	utils.PaginationParams
	Search string `json:"search,omitempty"`
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// CreateCompany registers a company and makes the creating user its admin.
func (s *CompanyService) CreateCompany(userID uuid.UUID, req *CreateCompanyRequest) (*models.Company, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.Company
	if err := s.db.Where("siret = ?", req.Siret).First(&existing).Error; err == nil {
		return nil, errors.New("a company with this SIRET is already registered")
	}

	company := &models.Company{
		Siret:        req.Siret,
		Name:         req.Name,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		association := &models.CompanyAssociation{
			UserID:    userID,
			CompanyID: company.ID,
			Role:      models.CompanyRoleAdmin,
		}
		if err := tx.Create(association).Error; err != nil {
			return fmt.Errorf("failed to create company association: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// UpdateCompany lets a company admin edit the public details.
func (s *CompanyService) UpdateCompany(companyID, userID uuid.UUID, req *UpdateCompanyRequest) (*models.Company, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.requireRole(companyID, userID, models.CompanyRoleAdmin); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.ContactEmail != "" {
		updates["contact_email"] = req.ContactEmail
	}
	if req.ContactPhone != "" {
		updates["contact_phone"] = req.ContactPhone
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.Company{}).
			Where("id = ?", companyID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update company: %w", err)
		}
	}

	var company models.Company
	if err := s.db.First(&company, "id = ?", companyID).Error; err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return &company, nil
}

// GetCompanyByID loads a company by primary key.
func (s *CompanyService) GetCompanyByID(companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := s.db.First(&company, "id = ?", companyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return &company, nil
}

// GetCompanyBySiret resolves a company by its SIRET.
func (s *CompanyService) GetCompanyBySiret(siret string) (*models.Company, error) {
	var company models.Company
	err := s.db.Preload("Associations.User").Where("siret = ?", siret).First(&company).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return &company, nil
}

// ListCompanies searches companies by name or SIRET prefix.
func (s *CompanyService) ListCompanies(params *CompanySearchParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Company{})
	if params.Search != "" {
		query = query.Where("name ILIKE ? OR siret LIKE ?",
			"%"+params.Search+"%", params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	var companies []models.Company
	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "name", "siret"})
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := query.Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	result := utils.CreatePaginationResult(companies, total, params.PaginationParams)
	return &result, nil
}

// AddMember attaches a user to a company. Only an admin may do so.
func (s *CompanyService) AddMember(companyID, callerID, userID uuid.UUID, role models.CompanyRole) (*models.CompanyAssociation, error) {
	if err := s.requireRole(companyID, callerID, models.CompanyRoleAdmin); err != nil {
		return nil, err
	}
	if role != models.CompanyRoleAdmin && role != models.CompanyRoleMember {
		return nil, fmt.Errorf("unknown company role: %s", role)
	}

	var existing models.CompanyAssociation
	err := s.db.Where("company_id = ? AND user_id = ?", companyID, userID).First(&existing).Error
	if err == nil {
		return nil, errors.New("user is already a member of this company")
	}

	association := &models.CompanyAssociation{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
	if err := s.db.Create(association).Error; err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return association, nil
}

// RemoveMember detaches a user from a company. Admins can remove anyone,
// members only themselves. The last admin cannot leave.
func (s *CompanyService) RemoveMember(companyID, callerID, userID uuid.UUID) error {
	if callerID != userID {
		if err := s.requireRole(companyID, callerID, models.CompanyRoleAdmin); err != nil {
			return err
		}
	}

	var association models.CompanyAssociation
	err := s.db.Where("company_id = ? AND user_id = ?", companyID, userID).First(&association).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load association: %w", err)
	}

	if association.Role == models.CompanyRoleAdmin {
		var admins int64
		if err := s.db.Model(&models.CompanyAssociation{}).
			Where("company_id = ? AND role = ?", companyID, models.CompanyRoleAdmin).
			Count(&admins).Error; err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return errors.New("cannot remove the last admin of a company")
		}
	}

	if err := s.db.Delete(&association).Error; err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// UserSirets lists the SIRETs of every company the user belongs to. The
// result backs the JWT claims.
func (s *CompanyService) UserSirets(userID uuid.UUID) ([]string, error) {
	var sirets []string
	err := s.db.Model(&models.CompanyAssociation{}).
		Joins("JOIN companies ON companies.id = company_associations.company_id").
		Where("company_associations.user_id = ?", userID).
		Order("companies.siret ASC").
		Pluck("companies.siret", &sirets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user companies: %w", err)
	}
	return sirets, nil
}

func (s *CompanyService) requireRole(companyID, userID uuid.UUID, role models.CompanyRole) error {
	var association models.CompanyAssociation
	err := s.db.Where("company_id = ? AND user_id = ?", companyID, userID).First(&association).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &UnauthorizedError{Role: FormRole(role)}
		}
		return fmt.Errorf("failed to load association: %w", err)
	}
	if role == models.CompanyRoleAdmin && association.Role != models.CompanyRoleAdmin {
		return &UnauthorizedError{Role: FormRole(role)}
	}
	return nil
}
