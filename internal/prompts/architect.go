package prompts

func init() {
	registry := DefaultRegistry()

	registry.Register(&Prompt{
		ID:      ProjectScope,
		Version: PromptV1,
		Content: `def print_project_scope(project_description: str) -> dict:
    """
    Input: a description of a website to build.
    Function: decides which capabilities the backend needs.
    Output: a JSON object with exactly these boolean fields:
        "is_crud_required": true if the site must create, read, update or delete stored data,
        "is_user_login_and_logout": true if users must log in and log out,
        "is_external_urls_required": true if data must be fetched from third party sites or APIs.
    Prints only the JSON object, for example:
        {"is_crud_required": true, "is_user_login_and_logout": false, "is_external_urls_required": false}
    """`,
		Description: "Classifies the project scope",
		Tags:        []string{"architect", "json"},
	})

	registry.Register(&Prompt{
		ID:      SiteURLs,
		Version: PromptV1,
		Content: `def print_site_urls(project_description: str) -> list[str]:
    """
    Input: a description of a website to build.
    Function: lists the external public API or website URLs the backend will
    call to get its data. Only lists URLs that are likely to exist and be
    reachable without credentials.
    Output: a JSON array of URL strings, for example:
        ["https://api.binance.com/api/v3/exchangeInfo", "https://api.binance.com/api/v3/klines?symbol=BTCUSDT&interval=1d"]
    """`,
		Description: "Lists external URLs the project depends on",
		Tags:        []string{"architect", "json"},
	})
}
