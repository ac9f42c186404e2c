package config

import "github.com/joho/godotenv"

// LoadDotEnv reads .env files into the environment for local development.
// Variables already set in the environment win. A missing file is reported
// and can be ignored by the caller.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}
