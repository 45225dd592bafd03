// Package config provides configuration loading and validation for the
// composition library.
//
// It uses Viper to load configuration from a YAML file, a .env file
// (godotenv), and environment variable overrides, then validates the result
// with struct tags (go-playground/validator).
package config
