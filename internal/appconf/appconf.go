package appconf

import "strings"

// Environment is the operating environment for the application.
type Environment int

const (
	Development Environment = iota
	Test
	Staging
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Staging:
		return "staging"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps an environment flag value to an Environment,
// defaulting to Development for anything unrecognized.
func EnvFlagToEnvironment(flag string) Environment {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "test":
		return Test
	case "staging":
		return Staging
	case "production":
		return Production
	default:
		return Development
	}
}
