package services

import (
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum/models"
	"momentum/utils"
)

const uploadURLExpiry = time.Hour

type ScreenshotService struct {
	db        *gorm.DB
	policy    *Policy
	presigner utils.Presigner
}

func NewScreenshotService(db *gorm.DB, policy *Policy, presigner utils.Presigner) *ScreenshotService {
	return &ScreenshotService{db: db, policy: policy, presigner: presigner}
}

type ScreenshotInput struct {
	EmployeeID     string  `json:"employee_id" validate:"required,max=36"`
	OrganizationID string  `json:"organization_id" validate:"required,max=36"`
	TrackingID     *string `json:"tracking_id" validate:"omitempty,max=36"`
	ProjectID      *string `json:"project_id" validate:"omitempty,max=36"`
	TaskID         *string `json:"task_id" validate:"omitempty,max=36"`
	Path           string  `json:"path" validate:"required,max=1024"`
	Permission     bool    `json:"permission"`
	OS             string  `json:"os" validate:"max=100"`
	GeoLocation    string  `json:"geo_location" validate:"max=255"`
	IPAddress      string  `json:"ip_address" validate:"omitempty,ip"`
	App            string  `json:"app" validate:"max=255"`
}

// ScreenshotUpdate only touches capture metadata; ownership never moves.
type ScreenshotUpdate struct {
	Permission  *bool   `json:"permission"`
	OS          *string `json:"os" validate:"omitempty,max=100"`
	GeoLocation *string `json:"geo_location" validate:"omitempty,max=255"`
	IPAddress   *string `json:"ip_address" validate:"omitempty,ip"`
	App         *string `json:"app" validate:"omitempty,max=255"`
}

type ScreenshotFilter struct {
	TrackingID string
	ProjectID  string
	TaskID     string
	Permission *bool
	App        string
	OS         string
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
	Page       int
	Size       int
}

type UploadURL struct {
	UploadURL string `json:"upload_url"`
	URL       string `json:"url"`
	Path      string `json:"path"`
	ExpiresIn int    `json:"expires_in"`
}

var (
	screenshotSortColumns = map[string]string{
		"created_at": "created_at",
		"app":        "app",
		"os":         "os",
	}
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

func (s *ScreenshotService) Create(ctx context.Context, actor models.Principal, in ScreenshotInput) (*models.Screenshot, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.policy.RequireActOnEmployee(ctx, actor, in.EmployeeID); err != nil {
		return nil, err
	}
	trackingID := normalizeIDPtr(in.TrackingID)
	projectID := normalizeIDPtr(in.ProjectID)
	taskID := normalizeIDPtr(in.TaskID)

	db := s.db.WithContext(ctx)
	var emp models.Employee
	if err := db.Where("id = ? AND is_active = ?", in.EmployeeID, true).Take(&emp).Error; err != nil {
		return nil, serviceError(notFound(err, "Employee not found"), "Failed to create screenshot")
	}
	var org models.Organization
	if err := db.Where("id = ? AND is_active = ?", in.OrganizationID, true).Take(&org).Error; err != nil {
		return nil, serviceError(notFound(err, "Organization not found"), "Failed to create screenshot")
	}
	if emp.OrganizationID != org.ID {
		return nil, utils.ErrInvalidState("Employee does not belong to this organization")
	}

	if trackingID != nil {
		var session models.TimeTrackingSession
		err := db.Where("id = ? AND employee_id = ? AND is_active = ?", *trackingID, emp.ID, true).Take(&session).Error
		if err != nil {
			return nil, serviceError(notFound(err, "Time entry not found"), "Failed to create screenshot")
		}
	}
	if projectID != nil || taskID != nil {
		var err error
		projectID, taskID, err = resolveWorkTarget(db, org.ID, projectID, taskID)
		if err != nil {
			return nil, serviceError(err, "Failed to create screenshot")
		}
	}

	shot := models.Screenshot{
		EmployeeID:     emp.ID,
		OrganizationID: org.ID,
		TrackingID:     trackingID,
		ProjectID:      projectID,
		TaskID:         taskID,
		Path:           strings.TrimSpace(in.Path),
		Permission:     in.Permission,
		OS:             in.OS,
		GeoLocation:    in.GeoLocation,
		IPAddress:      in.IPAddress,
		App:            in.App,
	}
	if err := db.Create(&shot).Error; err != nil {
		return nil, utils.ErrInternal("Failed to create screenshot", err)
	}
	return &shot, nil
}

func (s *ScreenshotService) Get(ctx context.Context, actor models.Principal, id string) (*models.Screenshot, error) {
	shot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, actor, shot); err != nil {
		return nil, err
	}
	return shot, nil
}

func (s *ScreenshotService) ListByEmployee(ctx context.Context, actor models.Principal, employeeID string, f ScreenshotFilter) (utils.Page[models.Screenshot], error) {
	if err := s.policy.RequireActOnEmployee(ctx, actor, employeeID); err != nil {
		return utils.Page[models.Screenshot]{}, err
	}
	return s.list(ctx, "employee_id", employeeID, f)
}

func (s *ScreenshotService) ListByOrganization(ctx context.Context, actor models.Principal, organizationID string, f ScreenshotFilter) (utils.Page[models.Screenshot], error) {
	if err := s.policy.RequireManage(ctx, actor, organizationID); err != nil {
		return utils.Page[models.Screenshot]{}, err
	}
	return s.list(ctx, "organization_id", organizationID, f)
}

func (s *ScreenshotService) ListByProject(ctx context.Context, actor models.Principal, projectID string, f ScreenshotFilter) (utils.Page[models.Screenshot], error) {
	if err := s.policy.RequireManageProject(ctx, actor, projectID); err != nil {
		return utils.Page[models.Screenshot]{}, err
	}
	return s.list(ctx, "project_id", projectID, f)
}

func (s *ScreenshotService) ListByTask(ctx context.Context, actor models.Principal, taskID string, f ScreenshotFilter) (utils.Page[models.Screenshot], error) {
	if err := s.policy.RequireManageTask(ctx, actor, taskID); err != nil {
		return utils.Page[models.Screenshot]{}, err
	}
	return s.list(ctx, "task_id", taskID, f)
}

func (s *ScreenshotService) Update(ctx context.Context, actor models.Principal, id string, in ScreenshotUpdate) (*models.Screenshot, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	shot, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Permission != nil {
		updates["permission"] = *in.Permission
	}
	if in.OS != nil {
		updates["os"] = *in.OS
	}
	if in.GeoLocation != nil {
		updates["geo_location"] = *in.GeoLocation
	}
	if in.IPAddress != nil {
		updates["ip_address"] = *in.IPAddress
	}
	if in.App != nil {
		updates["app"] = *in.App
	}
	if len(updates) == 0 {
		return shot, nil
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(shot).Updates(updates).Error; err != nil {
		return nil, utils.ErrInternal("Failed to update screenshot", err)
	}
	return s.load(ctx, id)
}

func (s *ScreenshotService) Delete(ctx context.Context, actor models.Principal, id string) error {
	shot, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(shot).Error; err != nil {
		return utils.ErrInternal("Failed to delete screenshot", err)
	}
	return nil
}

// UploadURL presigns a PUT for a fresh object key derived from fileName.
func (s *ScreenshotService) UploadURL(ctx context.Context, actor models.Principal, fileName string) (*UploadURL, error) {
	if !present(actor) {
		return nil, utils.ErrUnauthorized("Authentication required")
	}
	name := sanitizeFileName(fileName)
	if name == "" {
		return nil, utils.ErrValidation(utils.FieldError{Field: "file_name", Message: "file_name is required"})
	}
	if s.presigner == nil {
		return nil, utils.ErrInternal("Object storage is not configured", nil)
	}

	key := "screenshots/" + uuid.NewString() + "-" + name
	uploadURL, publicURL, err := s.presigner.PresignUpload(ctx, key, uploadURLExpiry)
	if err != nil {
		return nil, utils.ErrInternal("Failed to generate upload URL", err)
	}
	return &UploadURL{
		UploadURL: uploadURL,
		URL:       publicURL,
		Path:      key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

func (s *ScreenshotService) list(ctx context.Context, column, value string, f ScreenshotFilter) (utils.Page[models.Screenshot], error) {
	var page utils.Page[models.Screenshot]

	q := s.db.WithContext(ctx).Model(&models.Screenshot{}).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if f.TrackingID != "" {
		q = q.Where("tracking_id = ?", f.TrackingID)
	}
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.TaskID != "" {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if f.Permission != nil {
		q = q.Where("permission = ?", *f.Permission)
	}
	if app := strings.ToLower(strings.TrimSpace(f.App)); app != "" {
		q = q.Where("LOWER(app) LIKE ?", "%"+app+"%")
	}
	if os := strings.ToLower(strings.TrimSpace(f.OS)); os != "" {
		q = q.Where("LOWER(os) LIKE ?", "%"+os+"%")
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", f.EndDate.UTC())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, utils.ErrInternal("Failed to count screenshots", err)
	}

	sortColumn, ok := screenshotSortColumns[f.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	desc := !strings.EqualFold(f.SortOrder, "asc")
	p, size := clampPage(f.Page, f.Size)

	var items []models.Screenshot
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumn}, Desc: desc}).
		Offset((p - 1) * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return page, utils.ErrInternal("Failed to load screenshots", err)
	}
	return utils.NewPage(items, total, p, size), nil
}

// requireManage permits the capturing employee or a manager of the organization.
func (s *ScreenshotService) requireManage(ctx context.Context, actor models.Principal, shot *models.Screenshot) error {
	if present(actor) && actor.Kind() == models.AccountTypeEmployee && actor.PrincipalID() == shot.EmployeeID {
		return nil
	}
	return s.policy.RequireManage(ctx, actor, shot.OrganizationID)
}

func (s *ScreenshotService) load(ctx context.Context, id string) (*models.Screenshot, error) {
	var shot models.Screenshot
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&shot).Error; err != nil {
		return nil, serviceError(notFound(err, "Screenshot not found"), "Failed to load screenshot")
	}
	return &shot, nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	name = unsafeFileChars.ReplaceAllString(name, "_")
	if len(name) > 128 {
		name = name[len(name)-128:]
	}
	return strings.Trim(name, "_")
}
