package config

import "os"

func IsDebug() bool {
	v := os.Getenv("TUTOR_DEBUG")
	return v == "1" || v == "true"
}
