package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-versions/internal/prompts"
	"github.com/jonathan/resume-versions/internal/types"
)

// SystemPrompt returns the standing instructions that forbid fabrication
func SystemPrompt() (string, error) {
	return prompts.Get(prompts.TailoringFile, "system")
}

// BuildTailorPrompt renders the new-company prompt. The same inputs always produce the same
// string.
func BuildTailorPrompt(resume types.ResumeData, companyName, jobTitle, jobDescription, instructions string) (string, error) {
	template, err := prompts.Get(prompts.TailoringFile, "new-company")
	if err != nil {
		return "", err
	}
	resumeJSON, err := marshalResume(resume)
	if err != nil {
		return "", err
	}

	jdSection, err := optionalSection("job-description-section", "JobDescription", jobDescription)
	if err != nil {
		return "", err
	}
	instructionsSection, err := optionalSection("instructions-section", "Instructions", instructions)
	if err != nil {
		return "", err
	}

	return prompts.Format(template, map[string]string{
		"CompanyName":           strings.TrimSpace(companyName),
		"JobTitle":              strings.TrimSpace(jobTitle),
		"Resume":                resumeJSON,
		"JobDescriptionSection": jdSection,
		"InstructionsSection":   instructionsSection,
	}), nil
}

// BuildModifyPrompt renders the modification prompt for an existing version
func BuildModifyPrompt(resume types.ResumeData, instructions, jobDescription string) (string, error) {
	template, err := prompts.Get(prompts.TailoringFile, "modify")
	if err != nil {
		return "", err
	}
	resumeJSON, err := marshalResume(resume)
	if err != nil {
		return "", err
	}
	jdSection, err := optionalSection("target-job-description-section", "JobDescription", jobDescription)
	if err != nil {
		return "", err
	}

	return prompts.Format(template, map[string]string{
		"Resume":                resumeJSON,
		"JobDescriptionSection": jdSection,
		"Instructions":          strings.TrimSpace(instructions),
	}), nil
}

func marshalResume(resume types.ResumeData) (string, error) {
	data, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resume: %w", err)
	}
	return string(data), nil
}

// optionalSection renders a prompt section, or "" when value is blank
func optionalSection(key, placeholder, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	template, err := prompts.Get(prompts.TailoringFile, key)
	if err != nil {
		return "", err
	}
	return prompts.Format(template, map[string]string{placeholder: value}), nil
}
