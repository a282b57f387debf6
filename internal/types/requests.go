package types

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CreateCompanyRequest seeds a new company history with its first version
type CreateCompanyRequest struct {
	CompanyName    string         `json:"companyName" validate:"notblank"`
	JobTitle       string         `json:"jobTitle" validate:"notblank"`
	JobDescription string         `json:"jobDescription,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	BaseVersionID  string         `json:"baseVersionId,omitempty"`
	ResumeData     ResumeData     `json:"resumeData"`
	LLMPromptUsed  string         `json:"llmPromptUsed,omitempty"`
	ChangeSummary  string         `json:"changeSummary,omitempty"`
	Changes        []ChangeDetail `json:"changes,omitempty"`
}

// AddVersionRequest appends a version to an existing company. Empty JobTitle and nil
// JobDescription / Notes inherit from the version that is current when the call is applied.
// Empty BaseVersionID records the current version as the provenance link.
type AddVersionRequest struct {
	ResumeData     ResumeData     `json:"resumeData"`
	JobTitle       string         `json:"jobTitle,omitempty"`
	JobDescription *string        `json:"jobDescription,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	BaseVersionID  string         `json:"baseVersionId,omitempty"`
	LLMPromptUsed  string         `json:"llmPromptUsed,omitempty"`
	ChangeSummary  string         `json:"changeSummary,omitempty"`
	Changes        []ChangeDetail `json:"changes,omitempty"`
}

// MetaUpdate edits company-level metadata. A renamed company propagates to every version;
// JobTitle and Notes only touch the current version.
type MetaUpdate struct {
	CompanyName *string `json:"companyName,omitempty" validate:"omitnil,notblank"`
	JobTitle    *string `json:"jobTitle,omitempty" validate:"omitnil,notblank"`
	Notes       *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u MetaUpdate) IsEmpty() bool {
	return u.CompanyName == nil && u.JobTitle == nil && u.Notes == nil
}

// TailorRequest asks the generation collaborator to tailor a resume for a new company.
// JobURL is fetched and reduced to text when JobDescription is empty.
type TailorRequest struct {
	CompanyName    string     `json:"companyName" validate:"notblank"`
	JobTitle       string     `json:"jobTitle" validate:"notblank"`
	ResumeData     ResumeData `json:"resumeData"`
	JobDescription string     `json:"jobDescription,omitempty"`
	JobURL         string     `json:"jobUrl,omitempty" validate:"omitempty,http_url"`
	Instructions   string     `json:"instructions,omitempty"`
	BaseVersionID  string     `json:"baseVersionId,omitempty"`
}

// ModifyRequest asks the generation collaborator to revise an existing version. An empty
// VersionID targets the company's current version; a nil JobDescription reuses the source
// version's description.
type ModifyRequest struct {
	CompanyID      string  `json:"companyId" validate:"notblank"`
	VersionID      string  `json:"versionId,omitempty"`
	Instructions   string  `json:"instructions" validate:"notblank"`
	JobDescription *string `json:"jobDescription,omitempty"`
	JobURL         string  `json:"jobUrl,omitempty" validate:"omitempty,http_url"`
}

// Validate validates the CreateCompanyRequest using the validator.
func (r *CreateCompanyRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requireResume(r.ResumeData)
}

// Validate checks that the request carries a resume snapshot.
func (r *AddVersionRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requireResume(r.ResumeData)
}

// Validate validates the MetaUpdate using the validator.
func (u *MetaUpdate) Validate() error {
	return validateStruct(u)
}

// Validate validates the TailorRequest using the validator.
func (r *TailorRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	return requireResume(r.ResumeData)
}

// Validate validates the ModifyRequest using the validator.
func (r *ModifyRequest) Validate() error {
	return validateStruct(r)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() == reflect.Ptr {
				if field.IsNil() {
					return false
				}
				field = field.Elem()
			}
			return field.Kind() == reflect.String && strings.TrimSpace(field.String()) != ""
		})
	})
	return validate
}

// requireResume rejects a missing or empty snapshot
func requireResume(resume ResumeData) error {
	if resume.IsEmpty() {
		return &ValidationError{Field: "resumeData", Message: "is required"}
	}
	return nil
}

// validateStruct runs struct validation and reports the first failure as a *ValidationError
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		message := "is invalid"
		switch fe.Tag() {
		case "required", "notblank":
			message = "is required"
		}
		return &ValidationError{Field: fe.Field(), Message: message}
	}
	return &ValidationError{Field: "(root)", Message: err.Error()}
}
