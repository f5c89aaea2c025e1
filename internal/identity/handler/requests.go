package handler

import (
	"strings"

	"healthfund/internal/identity/service"
	"healthfund/pkg/platform/validation"
)

// RegisterApplicantRequest is the body of POST /api/applicants/register.
type RegisterApplicantRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	FullName string `json:"full_name" validate:"required,max=200"`
	TRN      string `json:"trn" validate:"required,max=20"`
	DOB      string `json:"dob" validate:"required,max=10"`
	Gender   string `json:"gender" validate:"required,max=20"`
	Address  string `json:"address" validate:"max=500"`
	Phone    string `json:"phone" validate:"max=30"`
	Parish   string `json:"parish" validate:"max=100"`
}

func (r *RegisterApplicantRequest) Normalize() {
	trimAll(&r.Username, &r.Email, &r.FullName, &r.TRN, &r.DOB, &r.Gender, &r.Address, &r.Phone, &r.Parish)
}

func (r *RegisterApplicantRequest) Validate() error {
	return validation.Struct(r, "Missing required applicant fields")
}

func (r *RegisterApplicantRequest) command() service.ApplicantRegistration {
	return service.ApplicantRegistration{
		Username: r.Username, Email: r.Email, Password: r.Password,
		FullName: r.FullName, TRN: r.TRN, DOB: r.DOB, Gender: r.Gender,
		Address: r.Address, Phone: r.Phone, Parish: r.Parish,
	}
}

// RegisterDoctorRequest is the body of POST /api/doctor/register.
type RegisterDoctorRequest struct {
	Username      string `json:"username" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Password      string `json:"password" validate:"required,max=72"`
	FullName      string `json:"full_name" validate:"required,max=200"`
	MCJRegNo      string `json:"mcj_reg_no" validate:"required,max=50"`
	Phone         string `json:"phone" validate:"max=30"`
	Parish        string `json:"parish" validate:"max=100"`
	OfficeAddress string `json:"office_address" validate:"max=500"`
}

func (r *RegisterDoctorRequest) Normalize() {
	trimAll(&r.Username, &r.Email, &r.FullName, &r.MCJRegNo, &r.Phone, &r.Parish, &r.OfficeAddress)
}

func (r *RegisterDoctorRequest) Validate() error {
	return validation.Struct(r, "Missing required doctor fields")
}

func (r *RegisterDoctorRequest) command() service.DoctorRegistration {
	return service.DoctorRegistration{
		Username: r.Username, Email: r.Email, Password: r.Password,
		FullName: r.FullName, MCJRegNo: r.MCJRegNo,
		Phone: r.Phone, Parish: r.Parish, OfficeAddr: r.OfficeAddress,
	}
}

// RegisterStaffRequest is the body of POST /api/staff/register.
type RegisterStaffRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	DOB      string `json:"dob" validate:"required,max=10"`
	Gender   string `json:"gender" validate:"required,max=20"`
	TRN      string `json:"trn" validate:"required,max=20"`
	StaffID  string `json:"staff_id" validate:"required,max=50"`
}

func (r *RegisterStaffRequest) Normalize() {
	trimAll(&r.Username, &r.Email, &r.DOB, &r.Gender, &r.TRN, &r.StaffID)
}

func (r *RegisterStaffRequest) Validate() error {
	return validation.Struct(r, "Missing required staff registration fields")
}

func (r *RegisterStaffRequest) command() service.StaffRegistration {
	return service.StaffRegistration{
		Username: r.Username, Email: r.Email, Password: r.Password,
		DOB: r.DOB, Gender: r.Gender, TRN: r.TRN, StaffID: r.StaffID,
	}
}

// LoginRequest is the body of POST /api/login. "username" and "email" are
// accepted as aliases of username_or_email.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required,max=254"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	trimAll(&r.UsernameOrEmail, &r.Username, &r.Email)
	if r.UsernameOrEmail == "" {
		r.UsernameOrEmail = r.Username
	}
	if r.UsernameOrEmail == "" {
		r.UsernameOrEmail = r.Email
	}
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r, "Missing credentials")
}

type registerResponse struct {
	OK   bool   `json:"ok"`
	Role string `json:"role"`
}

type loginResponse struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
