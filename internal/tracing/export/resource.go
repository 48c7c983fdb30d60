package export

// Resource is the static metadata identifying this process, attached once to
// every exported batch.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Attributes renders the resource as exportable key-value pairs.
func (r Resource) Attributes() map[string]string {
	return map[string]string{
		"service.name":           r.ServiceName,
		"service.version":        r.ServiceVersion,
		"deployment.environment": r.Environment,
	}
}
