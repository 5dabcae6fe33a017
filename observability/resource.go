package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newResource merges SDK defaults with service metadata. The service
// attributes are schemaless so they merge with any default schema.
func newResource(info ServiceInfo) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", info.Name),
	}
	if info.Version != "" {
		attrs = append(attrs, attribute.String("service.version", info.Version))
	}
	if info.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", info.Environment))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}
