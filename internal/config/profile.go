package config

// Profile selects which front-end features run and where credentials come from.
type Profile struct {
	Name            string
	UseEnv          bool
	CredentialsFile string
	ForcePaper      bool
	Email           bool
	Report          bool
	Progress        bool
}

// Live trades against BASE_URL with env credentials, emails reports and
// confirmations, and renders stage progress.
func Live() Profile {
	return Profile{
		Name:     "live",
		UseEnv:   true,
		Email:    true,
		Report:   true,
		Progress: true,
	}
}

// Paper always trades on the paper endpoint with credentials from context.json
// and logs only.
func Paper() Profile {
	return Profile{
		Name:            "paper",
		CredentialsFile: "context.json",
		ForcePaper:      true,
	}
}
