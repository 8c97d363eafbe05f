package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIBaseURL = "http://localhost:3000/api"

type Config struct {
	// Backend
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Logging / output
	LogLevel  string
	LogFormat string
	NoColor   bool

	// Bulk import
	ImportWorkers int

	// SFTP (catalog publication)
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
	SFTPKnownHosts            string
}

func Load() Config {
	return Config{
		// Backend
		APIBaseURL:  strings.TrimRight(getenv("COURSE_API_URL", DefaultAPIBaseURL), "/"),
		HTTPTimeout: time.Duration(getenvPositiveInt("COURSE_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		// Logging / output
		LogLevel:  getenv("COURSE_LOG_LEVEL", "info"),
		LogFormat: getenv("COURSE_LOG_FORMAT", "text"),
		NoColor:   getenvBool("COURSE_NO_COLOR", false),

		ImportWorkers: getenvInt("COURSE_IMPORT_WORKERS", 4),

		// SFTP
		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getenvPositiveInt is getenvInt with zero and negative values replaced by def.
func getenvPositiveInt(k string, def int) int {
	if n := getenvInt(k, def); n > 0 {
		return n
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
