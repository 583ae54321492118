package middleware

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// unknownService is the default service name when detection fails
const unknownService = "unknown-service"

// detectServiceInfo resolves service name and namespace.
// Name: OTEL_SERVICE_NAME, then the configured name, then POD_NAME minus
// its two replica hashes. Namespace: OTEL_RESOURCE_ATTRIBUTES, POD_NAMESPACE,
// then "default".
func detectServiceInfo(configured string) (serviceName, namespace string) {
	serviceName = os.Getenv("OTEL_SERVICE_NAME")

	if serviceName == "" && configured != "" && configured != "unknown" {
		serviceName = configured
	}

	if serviceName == "" {
		if podName := os.Getenv("POD_NAME"); podName != "" {
			// <deployment>-<replicaset-hash>-<pod-hash>
			parts := strings.Split(podName, "-")
			if len(parts) >= 3 {
				serviceName = strings.Join(parts[:len(parts)-2], "-")
			} else {
				serviceName = parts[0]
			}
		}
	}

	if serviceName == "" {
		serviceName = unknownService
	}

	if attrs := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); attrs != "" {
		for _, attr := range strings.Split(attrs, ",") {
			kv := strings.SplitN(attr, "=", 2)
			if len(kv) == 2 && kv[0] == "service.namespace" {
				return serviceName, kv[1]
			}
		}
	}

	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return serviceName, ns
	}

	return serviceName, "default"
}

// CreateResource builds the OpenTelemetry resource shared by tracing and
// profiling. On partial failure a minimal resource is returned with the error.
func CreateResource(ctx context.Context, configured string) (*resource.Resource, error) {
	serviceName, namespace := detectServiceInfo(configured)

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
		),
	)
	if err != nil {
		return resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
		), fmt.Errorf("resource detection partial failure (using fallback): %w", err)
	}

	return res, nil
}

// GetServiceName extracts service name from a resource
func GetServiceName(res *resource.Resource) string {
	if res == nil {
		return unknownService
	}
	for _, attr := range res.Attributes() {
		if attr.Key == semconv.ServiceNameKey {
			return attr.Value.AsString()
		}
	}
	return unknownService
}
