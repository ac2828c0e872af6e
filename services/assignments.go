package services

import (
	"gorm.io/gorm"

	"momentum/models"
	"momentum/utils"
)

type AssignEmployeesInput struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1,max=500,dive,required,max=36"`
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// checkEmployeesInOrganization fails with NotFound for unknown ids and
// InvalidState when any worker belongs to another organization.
func checkEmployeesInOrganization(tx *gorm.DB, organizationID string, ids []string) error {
	var employees []models.Employee
	if err := tx.Select("id", "organization_id").Where("id IN ?", ids).Find(&employees).Error; err != nil {
		return err
	}
	if len(employees) != len(ids) {
		return utils.ErrNotFound("One or more employees not found")
	}
	for _, e := range employees {
		if e.OrganizationID != organizationID {
			return utils.ErrInvalidState("All employees must belong to the same organization")
		}
	}
	return nil
}

// activeAssignees loads workers joined through an assignment table.
func activeAssignees(db *gorm.DB, table, column, id string) ([]models.Employee, error) {
	var employees []models.Employee
	err := db.Where("id IN (?)",
		db.Table(table).Select("employee_id").Where(column+" = ? AND is_active = ?", id, true),
	).Order("name ASC").Find(&employees).Error
	return employees, err
}
