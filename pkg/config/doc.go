// Package config loads typed configuration structs from environment
// variables using github.com/caarlos0/env/v11 struct tags, with an optional
// .env file read through github.com/joho/godotenv.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
