package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/bookshare-service/chat/internal/retention"
	"github.com/Astemirdum/bookshare-service/pkg/auth"
	"github.com/Astemirdum/bookshare-service/pkg/logger"
	"github.com/Astemirdum/bookshare-service/pkg/postgres"
	"github.com/Astemirdum/bookshare-service/pkg/server"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"CHAT_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"CHAT_HTTP_PORT" default:"8090"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

func (s HTTPServer) Server() server.Config {
	return server.Config{
		Host:         s.Host,
		Port:         s.Port,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}
}

type Config struct {
	Server    HTTPServer  `yaml:"server"`
	Database  postgres.DB `yaml:"db"`
	Users     users.Config
	Auth      auth.Config
	Retention retention.Config
	Log       logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
	})

	return cfg
}
