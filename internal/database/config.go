package database

import (
	"net/url"
	"os"
)

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ApplyEnv overrides fields with the DB_* variables that are set.
func (c *DBConfig) ApplyEnv() {
	for key, dst := range map[string]*string{
		"DB_USER":     &c.User,
		"DB_PASSWORD": &c.Password,
		"DB_HOST":     &c.Host,
		"DB_PORT":     &c.Port,
		"DB_NAME":     &c.DBName,
		"DB_SSLMODE":  &c.SSLMode,
	} {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
}

// Complete reports whether enough is set to build a DSN.
func (c DBConfig) Complete() bool {
	return c.User != "" && c.Host != "" && c.Port != "" && c.DBName != ""
}

// TargetDSN builds a URL-encoded postgres DSN. sslmode defaults to disable.
func (c DBConfig) TargetDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.DBName,
	}
	mode := c.SSLMode
	if mode == "" {
		mode = "disable"
	}
	q := u.Query()
	q.Set("sslmode", mode)
	u.RawQuery = q.Encode()
	return u.String()
}
