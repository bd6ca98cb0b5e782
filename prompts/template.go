package prompts

import (
	"regexp"
	"strings"
)

// templateVarRegex matches {variable} placeholders in templates.
var templateVarRegex = regexp.MustCompile(`\{(\w+)\}`)

// GetTemplateVars extracts variable names from a template string.
func GetTemplateVars(template string) []string {
	matches := templateVarRegex.FindAllStringSubmatch(template, -1)
	vars := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, match := range matches {
		if len(match) > 1 && !seen[match[1]] {
			vars = append(vars, match[1])
			seen[match[1]] = true
		}
	}
	return vars
}

// FormatString formats a template string with the given variables.
func FormatString(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// PromptTemplate is a string-based prompt template with {variable}
// placeholders.
type PromptTemplate struct {
	// Template is the template string with {variable} placeholders.
	Template string
	// TemplateVars are the variable names extracted from the template.
	TemplateVars []string
	// PromptType is the type/category of this prompt.
	PromptType PromptType
	// PartialVars are pre-filled variables.
	PartialVars map[string]string
}

// NewPromptTemplate creates a new PromptTemplate.
func NewPromptTemplate(template string, promptType PromptType) *PromptTemplate {
	return &PromptTemplate{
		Template:     template,
		TemplateVars: GetTemplateVars(template),
		PromptType:   promptType,
		PartialVars:  make(map[string]string),
	}
}

// Format formats the prompt into a string. Provided variables take
// precedence over pre-filled partial variables.
func (pt *PromptTemplate) Format(vars map[string]string) string {
	allVars := make(map[string]string)
	for k, v := range pt.PartialVars {
		allVars[k] = v
	}
	for k, v := range vars {
		allVars[k] = v
	}
	return FormatString(pt.Template, allVars)
}

// GetTemplate returns the raw template string.
func (pt *PromptTemplate) GetTemplate() string {
	return pt.Template
}

// GetTemplateVars returns the variable names in the template.
func (pt *PromptTemplate) GetTemplateVars() []string {
	return pt.TemplateVars
}

// PartialFormat creates a new template with some variables pre-filled.
func (pt *PromptTemplate) PartialFormat(vars map[string]string) *PromptTemplate {
	newPT := &PromptTemplate{
		Template:     pt.Template,
		TemplateVars: pt.TemplateVars,
		PromptType:   pt.PromptType,
		PartialVars:  make(map[string]string),
	}
	for k, v := range pt.PartialVars {
		newPT.PartialVars[k] = v
	}
	for k, v := range vars {
		newPT.PartialVars[k] = v
	}
	return newPT
}

// GetPromptType returns the prompt type.
func (pt *PromptTemplate) GetPromptType() PromptType {
	return pt.PromptType
}
