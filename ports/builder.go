package ports

import "context"

// Builder compiles a Move package into base64 encoded modules
type Builder interface {
	Build(ctx context.Context, packagePath string) ([]string, error)
}
