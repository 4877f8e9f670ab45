// Package version хранит сведения о сборке bom-service, заполняемые через -ldflags:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/bomalloc/internal/version.version=v1.2.0"
package version

import "fmt"

// ServiceName используется в логах, health-ответах и fiber AppName.
const ServiceName = "bom-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

func GetVersion() string { return version }

func GetCommit() string { return commit }

func GetDate() string { return date }

func String() string {
	return fmt.Sprintf("%s version=%s commit=%s date=%s", ServiceName, version, commit, date)
}

// Fields возвращает сведения о сборке для структурированного лога.
func Fields() map[string]any {
	return map[string]any{
		"service": ServiceName,
		"version": version,
		"commit":  commit,
		"date":    date,
	}
}
