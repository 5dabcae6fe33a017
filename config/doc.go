// Package config loads service configuration with Viper.
//
// Values come from three layers, later layers winning:
//
//  1. a YAML file (explicit path, or the first config.yml found in the
//     standard search locations)
//  2. a .env file loaded into the process environment through godotenv
//  3. environment variables, bound to every mapstructure key of the target
//     struct (gladia.api_key <- GLADIA_API_KEY or TRANSCRIBOT_GLADIA_API_KEY)
//
// Usage:
//
//	var cfg AppConfig
//	err := config.LoadConfig("transcribot", &cfg, config.WithConfigFile(path))
package config
