package prompts

func init() {
	registry := DefaultRegistry()

	registry.Register(&Prompt{
		ID:      UserGoal,
		Version: PromptV1,
		Content: `def convert_user_input_to_goal(user_request: str) -> str:
    """
    Input: a raw request from a user describing a website or web service.
    Function: converts the request into a concise, unambiguous goal for a
    development team. Keeps every concrete requirement the user mentioned
    (data to store, pages or endpoints, authentication, external data
    sources). Does not invent requirements.
    Output: one paragraph of plain text starting with "build a website that".
    """`,
		Description: "Turns raw user input into a project goal",
		Tags:        []string{"manager", "text"},
	})
}
