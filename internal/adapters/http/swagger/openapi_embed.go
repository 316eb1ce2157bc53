package swagger

import _ "embed"

// OpenAPI contains the embedded OpenAPI YAML document of the podium API.
//
//go:embed openapi.yaml
var OpenAPI []byte
