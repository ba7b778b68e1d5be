// Package api embeds the HTTP contract served and enforced by the service.
package api

import _ "embed"

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yml openapi.yml

//go:embed openapi.yml
var OpenAPI []byte
