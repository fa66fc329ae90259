package attendance

import (
	"strings"

	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type PunchRequest struct {
	Employee        EmployeeKey `json:"-"`
	Date            string      `json:"date" validate:"required,datekey"`
	Action          Action      `json:"action" validate:"required,oneof=check-in break-start break-end bio-start bio-end check-out"`
	ClientTimestamp *string     `json:"client_timestamp,omitempty" validate:"omitempty,datetime3339"`
}

func (r *PunchRequest) Validate() error {
	r.Date = strings.TrimSpace(r.Date)
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	return validateWithEmployee(r, r.Employee)
}

type GetRecordRequest struct {
	Employee EmployeeKey `json:"-"`
	Date     string      `json:"date" validate:"required,datekey"`
}

func (r *GetRecordRequest) Validate() error {
	r.Date = strings.TrimSpace(r.Date)
	return validateWithEmployee(r, r.Employee)
}

// ========================================
// EVIDENCE DTOs
// ========================================

type AttachEvidenceRequest struct {
	Employee EmployeeKey `json:"-"`
	Date     string      `json:"date" validate:"required,datekey"`
	Action   Action      `json:"action" validate:"required,oneof=check-in break-start break-end bio-start bio-end check-out"`
	URL      string      `json:"url" validate:"required,url,max=2048"`
}

func (r *AttachEvidenceRequest) Validate() error {
	r.Date = strings.TrimSpace(r.Date)
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	r.URL = strings.TrimSpace(r.URL)
	return validateWithEmployee(r, r.Employee)
}

// UploadEvidenceRequest is the 'data' part of a multipart selfie upload
type UploadEvidenceRequest struct {
	Date   string `json:"date" validate:"required,datekey"`
	Action Action `json:"action" validate:"required,oneof=check-in break-start break-end bio-start bio-end check-out"`
}

func (r *UploadEvidenceRequest) Validate() error {
	r.Date = strings.TrimSpace(r.Date)
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	return validator.Struct(r)
}

func validateWithEmployee(s interface{}, key EmployeeKey) error {
	var errs validator.ValidationErrors

	if err := validator.Struct(s); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if validator.IsEmpty(key.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "employee name is required",
		})
	}

	if !validator.IsValidEmail(strings.TrimSpace(key.Email)) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "employee email must be a valid email address",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSE DTOs
// ========================================

type IntervalResponse struct {
	Start   string  `json:"start"`
	End     *string `json:"end,omitempty"`
	Minutes int     `json:"minutes"`
}

type EvidenceResponse struct {
	ID       string `json:"id"`
	Sequence int64  `json:"sequence"`
	Action   Action `json:"action"`
	URL      string `json:"url"`
	TakenAt  string `json:"taken_at"`
}

type RecordResponse struct {
	ID                   string             `json:"id"`
	EmployeeName         string             `json:"employee_name"`
	EmployeeEmail        string             `json:"employee_email"`
	Date                 string             `json:"date"`
	Status               Status             `json:"status"`
	CheckIn              *string            `json:"check_in,omitempty"`
	CheckOut             *string            `json:"check_out,omitempty"`
	BreakSessions        []IntervalResponse `json:"break_sessions"`
	BioBreakSessions     []IntervalResponse `json:"bio_break_sessions"`
	TotalBreakMinutes    int                `json:"total_break_minutes"`
	TotalBioBreakMinutes int                `json:"total_bio_break_minutes"`
	TotalWorkedMinutes   int                `json:"total_worked_minutes"`
	Evidence             []EvidenceResponse `json:"evidence"`
	AllowedActions       []Action           `json:"allowed_actions"`
	Version              int64              `json:"version"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
}
