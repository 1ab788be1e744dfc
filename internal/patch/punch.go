package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// RouteInstanceEdit implements §4.5's instance edit: in the parent
// module's source, locate the instantiation site matching
// "<ChildModule> ... <instanceName> (" and insert a named-port binding
// ".<punch>(<punch>)," immediately after the opening parenthesis. Grounded
// on rtl_patcher.py's add_port_to_instance.
func RouteInstanceEdit(content, childModule, instanceName, punch string) (string, error) {
	pattern := regexp.MustCompile(
		regexp.QuoteMeta(childModule) + `\s+(?:#\s*\([^;]*?\)\s*)?` + regexp.QuoteMeta(instanceName) + `\s*\(`)
	loc := pattern.FindStringIndex(content)
	if loc == nil {
		return "", fmt.Errorf("instantiation of %q as %q not found", childModule, instanceName)
	}
	insertAt := loc[1]
	return content[:insertAt] + fmt.Sprintf("\n.%s(%s),", punch, punch) + content[insertAt:], nil
}

// RouteModuleEdit implements §4.5's module edit: in the child module's
// source, locate its "module <Child>( ... )" declaration and insert
// "input <punch>," immediately after the opening parenthesis of its port
// list. Grounded on rtl_patcher.py's add_port_to_module.
func RouteModuleEdit(content, moduleName, punch string) (string, error) {
	pattern := regexp.MustCompile(
		`module\s+` + regexp.QuoteMeta(moduleName) + `(?:\s+import\s+[\w:.*]+;)?(?:\s*#\(\s*[\s\S]*?\s*\))?\s*\(`)
	loc := pattern.FindStringIndex(content)
	if loc == nil {
		return "", fmt.Errorf("module %q declaration not found", moduleName)
	}
	insertAt := loc[1]
	return content[:insertAt] + fmt.Sprintf("\ninput %s,", punch) + content[insertAt:], nil
}

// InstancePathComponents splits a dotted instance path into its
// individual components.
func InstancePathComponents(instancePath string) []string {
	return strings.Split(instancePath, ".")
}
