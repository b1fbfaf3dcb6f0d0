package api

import "net/http"

// Endpoint describes one server operation: HTTP method, a path template with
// {name} placeholders, and whether an access token is required. The request
// layer only knows this shape; what each endpoint means belongs to callers.
type Endpoint struct {
	Name         string
	Method       string
	Template     string
	RequiresAuth bool
}

// The endpoint catalogue. Every template starts with {url}, the appliance
// base URL, which is substituted verbatim; all other parameters are
// percent-escaped before substitution.
var (
	// EndpointLogin exchanges (login, password-or-key) for the user's API
	// key via basic auth.
	EndpointLogin = Endpoint{
		Name:     "login",
		Method:   http.MethodGet,
		Template: "{url}/authn/{account}/login",
	}

	// EndpointAuthenticate exchanges (login, api key) for a short-lived
	// access token. The key travels in the request body.
	EndpointAuthenticate = Endpoint{
		Name:     "authenticate",
		Method:   http.MethodPost,
		Template: "{url}/authn/{account}/{login}/authenticate",
	}

	// EndpointRotateAPIKey rotates an API key. With basic auth it rotates
	// the caller's own key; with a token and a ?role= query it rotates
	// another role's key.
	EndpointRotateAPIKey = Endpoint{
		Name:     "rotate-api-key",
		Method:   http.MethodPut,
		Template: "{url}/authn/{account}/api_key",
	}

	// EndpointChangePassword updates the caller's password. Basic auth with
	// the current password or API key; the new password is the body.
	EndpointChangePassword = Endpoint{
		Name:     "change-password",
		Method:   http.MethodPut,
		Template: "{url}/authn/{account}/password",
	}

	// EndpointWhoAmI echoes the authenticated identity.
	EndpointWhoAmI = Endpoint{
		Name:         "whoami",
		Method:       http.MethodGet,
		Template:     "{url}/whoami",
		RequiresAuth: true,
	}

	// EndpointGetSecret retrieves a secret value.
	EndpointGetSecret = Endpoint{
		Name:         "get-secret",
		Method:       http.MethodGet,
		Template:     "{url}/secrets/{account}/variable/{identifier}",
		RequiresAuth: true,
	}

	// EndpointSetSecret stores a secret value.
	EndpointSetSecret = Endpoint{
		Name:         "set-secret",
		Method:       http.MethodPost,
		Template:     "{url}/secrets/{account}/variable/{identifier}",
		RequiresAuth: true,
	}

	// EndpointLoadPolicy appends to a policy branch.
	EndpointLoadPolicy = Endpoint{
		Name:         "load-policy",
		Method:       http.MethodPost,
		Template:     "{url}/policies/{account}/policy/{identifier}",
		RequiresAuth: true,
	}

	// EndpointReplacePolicy replaces a policy branch.
	EndpointReplacePolicy = Endpoint{
		Name:         "replace-policy",
		Method:       http.MethodPut,
		Template:     "{url}/policies/{account}/policy/{identifier}",
		RequiresAuth: true,
	}

	// EndpointUpdatePolicy updates a policy branch, allowing deletions.
	EndpointUpdatePolicy = Endpoint{
		Name:         "update-policy",
		Method:       http.MethodPatch,
		Template:     "{url}/policies/{account}/policy/{identifier}",
		RequiresAuth: true,
	}
)
