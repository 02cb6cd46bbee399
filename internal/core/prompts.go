package core

// prompts.go holds the canned agent-side texts shown to the clinician.
// Keeping them in one file makes them easy to tweak without touching the
// controller logic.

const (
	// WelcomeHistorical opens a fresh conversation in historical mode.
	WelcomeHistorical = "Hi, I'm ready to analyze this patient's historical " +
		"emotion data and provide recommendations based on the available " +
		"information. What would you like to know?"

	// WelcomeSessionScoped opens a fresh conversation in session-scoped
	// mode, before any sessions are picked.
	WelcomeSessionScoped = "Pick one or more therapy sessions and I'll provide " +
		"recommendations based on their emotion data. What would you like to know?"
)
