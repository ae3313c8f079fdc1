package messages

import "strings"

// Render substitutes {key} placeholders in a template with the given
// variables. Unknown placeholders are left untouched.
func Render(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
