package factsheet

// JSON schemas the oracle answers are validated against.
const (
	ProjectScopeSchema = `{
  "type": "object",
  "required": ["is_crud_required", "is_user_login_and_logout", "is_external_urls_required"],
  "properties": {
    "is_crud_required": {"type": "boolean"},
    "is_user_login_and_logout": {"type": "boolean"},
    "is_external_urls_required": {"type": "boolean"}
  }
}`

	URLListSchema = `{
  "type": "array",
  "items": {"type": "string", "minLength": 1}
}`

	RouteListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["is_route_dynamic", "method", "route"],
    "properties": {
      "is_route_dynamic": {"type": "boolean"},
      "method": {"type": "string"},
      "route": {"type": "string"}
    }
  }
}`
)
