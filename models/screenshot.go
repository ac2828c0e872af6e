package models

// Screenshot is capture metadata; the binary lives in object storage under Path.
type Screenshot struct {
	Base

	EmployeeID     string  `gorm:"type:varchar(36);not null;index" json:"employee_id"`
	OrganizationID string  `gorm:"type:varchar(36);not null;index" json:"organization_id"`
	TrackingID     *string `gorm:"type:varchar(36);index" json:"tracking_id,omitempty"`
	ProjectID      *string `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	TaskID         *string `gorm:"type:varchar(36);index" json:"task_id,omitempty"`

	Path        string `gorm:"not null" json:"path"`
	Permission  bool   `gorm:"not null;default:false" json:"permission"`
	OS          string `gorm:"size:100" json:"os,omitempty"`
	GeoLocation string `gorm:"size:255" json:"geo_location,omitempty"`
	IPAddress   string `gorm:"size:64" json:"ip_address,omitempty"`
	App         string `gorm:"size:255" json:"app,omitempty"`
}
