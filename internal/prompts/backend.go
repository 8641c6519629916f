package prompts

func init() {
	registry := DefaultRegistry()

	registry.Register(&Prompt{
		ID:      BackendWebserverCode,
		Version: PromptV1,
		Content: `def print_backend_webserver_code(project_description_and_template: str) -> str:
    """
    Input: a CODE TEMPLATE for a web server and a PROJECT_DESCRIPTION.
    Function: rewrites the template into a complete web server that meets the
    project description. Keeps the template's framework, dependencies and
    json file database. Removes every example route that the project does not
    need and adds the routes it does need. The server listens on
    localhost port 8080 unless the template says otherwise.
    Output: the full source code of the server, and nothing else.
    """`,
		Description: "Writes the first version of the backend",
		Tags:        []string{"backend", "code"},
	})

	registry.Register(&Prompt{
		ID:      ImprovedWebserverCode,
		Version: PromptV1,
		Content: `def print_improved_webserver_code(project_description_and_template: str) -> str:
    """
    Input: a CODE TEMPLATE holding a working web server and a
    PROJECT_DESCRIPTION holding the project facts as JSON.
    Function: improves the server. Fixes logic errors, adds missing routes,
    makes sure every external URL in the facts is actually called, and makes
    sure no route needs credentials that are not provided. Uses only the
    dependencies the code already imports.
    Output: the full improved source code, and nothing else.
    """`,
		Description: "Improves a compiling backend against the fact sheet",
		Tags:        []string{"backend", "code"},
	})

	registry.Register(&Prompt{
		ID:      FixedCode,
		Version: PromptV1,
		Content: `def print_fixed_code(broken_code_with_bugs: str) -> str:
    """
    Input: BROKEN_CODE that does not compile and the ERROR_BUGS the compiler printed.
    Function: removes every bug so the code compiles. Changes as little as
    possible and keeps all routes.
    Output: the full fixed source code, and nothing else.
    """`,
		Description: "Repairs code from compiler output",
		Tags:        []string{"backend", "code", "repair"},
	})

	registry.Register(&Prompt{
		ID:      RESTAPIEndpoints,
		Version: PromptV1,
		Content: `def print_rest_api_endpoints(code_input: str) -> list[dict]:
    """
    Input: the source code of a web server.
    Function: lists every REST route the server exposes.
    Output: a JSON array. Each element has these fields:
        "is_route_dynamic": true if the route has a path parameter such as /item/:id,
        "method": the HTTP method in upper case,
        "request_body": the JSON body the route expects, or null,
        "response": an example JSON response,
        "route": the path, starting with "/".
    Example:
        [{"is_route_dynamic": false, "method": "GET", "request_body": null, "response": [], "route": "/items"}]
    """`,
		Description: "Extracts the REST routes of the generated server",
		Tags:        []string{"backend", "json"},
	})
}
