package common

// GetAccountFromArgs extracts the account name from request arguments.
// It falls back to fallback, and to "default" when fallback is empty.
func GetAccountFromArgs(args map[string]interface{}, fallback string) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	if fallback != "" {
		return fallback
	}
	return "default"
}

// GetIntArg reads a numeric argument. JSON numbers arrive as float64.
func GetIntArg(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
