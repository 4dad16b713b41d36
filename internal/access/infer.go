package access

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultModule labels permissions that match no module rule.
const DefaultModule = "General System"

// ModuleRule maps keywords to a module label.
type ModuleRule struct {
	Keywords []string
	Label    string
}

// ModuleRules are evaluated top to bottom; the first rule with a keyword
// starting a word of the folded permission name or code wins. Words are split
// on anything that is not a letter or digit, so "ROLE_VIEW" and "Roles" match
// "rol" while "Control" and "payroll" do not.
var ModuleRules = []ModuleRule{
	{Keywords: []string{"usuario", "user"}, Label: "User Management"},
	{Keywords: []string{"rol", "role"}, Label: "Role Management"},
	{Keywords: []string{"cliente", "client"}, Label: "Client Management"},
	{Keywords: []string{"contrato", "contract"}, Label: "Contract Management"},
	{Keywords: []string{"membresia", "membership"}, Label: "Membership Management"},
	{Keywords: []string{"asistencia", "attendance"}, Label: "Attendance Control"},
	{Keywords: []string{"horario", "schedule"}, Label: "Schedule Management"},
	{Keywords: []string{"servicio", "service"}, Label: "Service Management"},
	{Keywords: []string{"entrenador", "trainer"}, Label: "Trainer Management"},
	{Keywords: []string{"dashboard"}, Label: "Dashboard"},
}

// InferModule labels a permission that arrived without module grouping. The
// label is for display only.
func InferModule(name, code string) string {
	return inferModule(ModuleRules, name, code)
}

func inferModule(rules []ModuleRule, name, code string) string {
	words := append(splitWords(fold(name)), splitWords(fold(code))...)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return rule.Label
				}
			}
		}
	}
	return DefaultModule
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fold lowercases s and strips diacritics so "Gestión" matches "gestion".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
